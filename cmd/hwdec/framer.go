/*
DESCRIPTION
  framer.go provides framer, which parses a coded frame and delivers it to a
  decode session over execute calls of a configured size.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package main

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/codec/jpeg"
	"github.com/ausocean/hwdec/codec/mpeg2"
	"github.com/ausocean/hwdec/codec/vp9"
	"github.com/ausocean/hwdec/config"
	"github.com/ausocean/hwdec/decoder"
)

// framer holds the parsers of a replay, which keep state across frames.
type framer struct {
	cfg   config.Config
	vp9   *vp9.HeaderParser
	mpeg2 *mpeg2.Parser
}

func newFramer(cfg config.Config) *framer {
	return &framer{cfg: cfg, vp9: vp9.NewHeaderParser(), mpeg2: mpeg2.NewParser()}
}

// decode parses frame and delivers it to dec. Each execute call carries the
// slices or scans whose data starts within its segment.
func (f *framer) decode(dec *decoder.Decoder, frame []byte) error {
	if len(frame) == 0 {
		return errors.New("empty frame")
	}

	var pic interface{}
	var slices func(lo, hi int) interface{}
	switch f.cfg.Codec {
	case codecutil.VP9:
		p, err := f.vp9.Parse(frame)
		if err != nil {
			return errors.Wrap(err, "could not parse vp9 header")
		}
		p.BitstreamSize = len(frame)
		pic = p
		slices = func(lo, hi int) interface{} { return nil }

	case codecutil.JPEG:
		p, scans, err := jpeg.Parse(frame)
		if err != nil {
			return errors.Wrap(err, "could not parse jpeg")
		}
		last := scans.Scans[len(scans.Scans)-1]
		frame = frame[:last.DataOffset+last.DataLength]
		pic = p
		slices = func(lo, hi int) interface{} {
			return &jpeg.ScanParams{Scans: within(scans.Scans, func(s jpeg.ScanHeader) int { return s.DataOffset }, lo, hi)}
		}

	case codecutil.MPEG2:
		p, s, err := f.mpeg2.Parse(frame)
		if err != nil {
			return errors.Wrap(err, "could not parse mpeg2 picture")
		}
		frame = frame[:p.BitstreamSize]
		pic = p
		slices = func(lo, hi int) interface{} {
			return &mpeg2.SliceParams{Slices: within(s.Slices, func(s mpeg2.SliceHeader) int { return s.DataOffset }, lo, hi)}
		}

	default:
		return errors.Errorf("no framer for %s", f.cfg.Codec)
	}

	err := dec.Begin()
	if err != nil {
		return err
	}
	seg := int(f.cfg.SegmentSize)
	if seg == 0 || seg > len(frame) {
		seg = len(frame)
	}
	l, err := codecutil.NewByteLexer(seg)
	if err != nil {
		return err
	}
	err = l.Lex(&executeWriter{dec: dec, pic: pic, slices: slices}, bytes.NewReader(frame), 0)
	if err != nil {
		return err
	}
	if !dec.Complete() {
		return errors.Errorf("frame of %d bytes incomplete after all execute calls", len(frame))
	}
	return nil
}

// executeWriter makes one execute call per write.
type executeWriter struct {
	dec    *decoder.Decoder
	pic    interface{}
	slices func(lo, hi int) interface{}
	off    int
}

// Write implements io.Writer.
func (w *executeWriter) Write(p []byte) (int, error) {
	lo, hi := w.off, w.off+len(p)
	err := w.dec.Execute(p, w.pic, w.slices(lo, hi))
	if err != nil {
		return 0, errors.Wrapf(err, "execute call at %d", lo)
	}
	w.off = hi
	return len(p), nil
}

// within returns the items whose offset lies in [lo, hi).
func within[T any](items []T, offset func(T) int, lo, hi int) []T {
	var sel []T
	for _, it := range items {
		if off := offset(it); off >= lo && off < hi {
			sel = append(sel, it)
		}
	}
	return sel
}
