/*
DESCRIPTION
  replay.go provides replay, which lexes coded input into frames on one
  routine and delivers the frames to a decode session on another, passing
  frames between them through a pool buffer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package main

import (
	"io"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/codec/jpeg"
	"github.com/ausocean/hwdec/codec/mpeg2"
	"github.com/ausocean/hwdec/codec/vp9"
	"github.com/ausocean/hwdec/config"
	"github.com/ausocean/hwdec/decoder"
	"github.com/ausocean/hwdec/resource"
)

const (
	poolReadTimeout = 100 * time.Millisecond
	maxFrameAlloc   = 16 << 20 // Largest frame the pool will hold.
	fourCCVP9       = "VP90"
)

// replay decodes the frames of src, writing the frame data consumed by each
// decode packet to dst. It returns the number of frames decoded. Frames that
// fail to decode are logged and dropped.
func replay(cfg config.Config, src io.Reader, dst io.Writer) (int, error) {
	log := cfg.Logger
	dec, err := decoder.New(cfg, resource.NewArena(log), dst)
	if err != nil {
		return 0, errors.Wrap(err, "could not create decoder")
	}
	defer dec.Close()

	fr := newFramer(cfg)

	pool.MaxAlloc(maxFrameAlloc)
	nElements := cfg.PoolCapacity / cfg.PoolStartElementSize
	buf := pool.NewBuffer(int(nElements), int(cfg.PoolStartElementSize), time.Duration(cfg.PoolWriteTimeout)*time.Second)

	lexed := make(chan error, 1)
	go func() { lexed <- lex(cfg, &poolWriter{buf: buf}, src) }()

	var dropped int
	for finished := false; ; {
		chunk, err := buf.Next(poolReadTimeout)
		switch err {
		case nil:
		case io.EOF:
			continue
		case pool.ErrTimeout:
			// Frames flushed before the lexer finished are read before the next
			// timeout.
			if finished {
				log.Info("input exhausted", "decoded", dec.Frames(), "dropped", dropped)
				return dec.Frames(), nil
			}
			select {
			case err := <-lexed:
				if err != nil {
					return dec.Frames(), errors.Wrap(err, "could not lex input")
				}
				finished = true
			default:
			}
			continue
		default:
			return dec.Frames(), errors.Wrap(err, "could not read frame from pool")
		}

		err = fr.decode(dec, chunk.Bytes())
		chunk.Close()
		if err != nil {
			dropped++
			log.Error("dropping frame", "error", err.Error())
		}
	}
}

// lex splits src into the frames of the configured codec, writing each frame
// to dst with one write.
func lex(cfg config.Config, dst io.Writer, src io.Reader) error {
	switch cfg.Codec {
	case codecutil.VP9:
		return lexIVF(cfg.Logger, dst, src)
	case codecutil.JPEG:
		return jpeg.Lex(cfg.Logger, dst, src, 0)
	case codecutil.MPEG2:
		return mpeg2.Lex(cfg.Logger, dst, src)
	default:
		return errors.Errorf("no lexer for %s", cfg.Codec)
	}
}

// lexIVF writes each VP9 frame held by the IVF file src to dst. Superframes
// are split into their frames.
func lexIVF(log logging.Logger, dst io.Writer, src io.Reader) error {
	r, h, err := ivfreader.NewWith(src)
	if err != nil {
		return errors.Wrap(err, "could not read ivf header")
	}
	if h.FourCC != fourCCVP9 {
		return errors.Errorf("ivf file holds %q, not vp9", h.FourCC)
	}
	log.Debug("read ivf header", "width", h.Width, "height", h.Height, "frames", h.NumFrames)

	for {
		payload, fh, err := r.ParseNextFrame()
		if errors.Is(err, io.EOF) || (err == nil && fh == nil) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not read ivf frame")
		}
		frames, err := vp9.SplitSuperframe(payload)
		if err != nil {
			return err
		}
		for _, f := range frames {
			_, err = dst.Write(f)
			if err != nil {
				return err
			}
		}
	}
}

// poolWriter writes each write to a pool buffer as one chunk.
type poolWriter struct {
	buf *pool.Buffer
}

// Write implements io.Writer.
func (w *poolWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if err != nil {
		return n, err
	}
	w.buf.Flush()
	return n, nil
}
