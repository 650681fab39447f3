/*
DESCRIPTION
  decoder.go provides Decoder, a decode session that builds the pipeline of
  a codec from a config and runs execute calls through it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package decoder provides decode sessions. A session owns the packet graph,
// the decode feature and the sub-pipelines of one codec, and writes the data
// consumed by each frame's decode packet to a sink.
package decoder

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/codec/jpeg"
	"github.com/ausocean/hwdec/codec/mpeg2"
	"github.com/ausocean/hwdec/codec/vp9"
	"github.com/ausocean/hwdec/config"
	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/decode/bitstream"
	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// Allocator is a resource.Allocator that also provides the device view of
// buffers for the CPU copy engines.
type Allocator interface {
	resource.Allocator
	packet.Memory
}

// Decoder is a decode session.
type Decoder struct {
	cfg   config.Config
	log   logging.Logger
	alloc Allocator
	sink  io.Writer

	graph *packet.Graph
	pipe  *decode.Pipeline
	basic *decode.BasicFeature

	// segments holds the buffers of the current frame's execute calls.
	segments []*resource.Buffer
	frames   int
}

// New returns a new Decoder for the codec named by c, allocating from alloc.
// Frame data consumed by the decode packet is written to sink, which may be
// nil.
func New(c config.Config, alloc Allocator, sink io.Writer) (*Decoder, error) {
	if c.Logger == nil || alloc == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "decoder needs logger and allocator")
	}
	c.Validate()
	if sink == nil {
		sink = io.Discard
	}

	d := &Decoder{cfg: c, log: c.Logger, alloc: alloc, sink: sink, graph: packet.NewGraph(c.Logger)}
	err := d.graph.Register(packet.DecodeID, (*decodePacket)(d))
	if err != nil {
		return nil, err
	}

	switch c.Codec {
	case codecutil.VP9:
		err = d.buildVP9()
	case codecutil.JPEG:
		err = d.buildJPEG()
	case codecutil.MPEG2:
		err = d.buildMPEG2()
	default:
		err = errors.Wrapf(status.ErrInvalidParameter, "no decode pipeline for %s", c.Codec)
	}
	if err != nil {
		if d.pipe != nil {
			d.pipe.Close()
		}
		return nil, errors.Wrap(err, "could not build pipeline")
	}
	d.log.Info("decoder created", "codec", c.Codec, "huc", c.HuCProbUpdate, "postCommit", c.PostProbCommit, "immediate", d.immediate())
	return d, nil
}

func (d *Decoder) immediate() bool { return d.cfg.Submit == config.SubmitImmediate }

// newPipeline registers f as the basic feature of a new pipeline.
func (d *Decoder) newPipeline(f decode.Feature, basic *decode.BasicFeature) error {
	fm := decode.NewFeatureManager()
	err := fm.Register(decode.BasicFeatureID, f)
	if err != nil {
		return err
	}
	d.pipe, err = decode.NewPipeline(d.log, fm, d.graph)
	if err != nil {
		if c, ok := f.(io.Closer); ok {
			c.Close()
		}
		return err
	}
	d.basic = basic
	return nil
}

// copier registers a new CPU copy engine under id.
func (d *Decoder) copier(id packet.ID) (*packet.Copier, error) {
	c := packet.NewCopier(d.alloc, d.log)
	return c, d.graph.Register(id, c)
}

func (d *Decoder) buildVP9() error {
	f, err := vp9.NewFeature(d.log, d.alloc, d.cfg.PostProbCommit)
	if err != nil {
		return err
	}
	err = d.newPipeline(f, &f.BasicFeature)
	if err != nil {
		return err
	}
	fm := d.pipe.Features()

	concat, err := d.copier(packet.BitstreamConcatID)
	if err != nil {
		return err
	}
	in, err := bitstream.NewInput(d.log, d.alloc, concat, d.graph, fm, d.immediate())
	if err != nil {
		return err
	}
	err = d.pipe.AddPre(in)
	if err != nil {
		return err
	}

	segCopy, err := d.copier(packet.SegmentInitCopyID)
	if err != nil {
		return err
	}
	u, err := vp9.NewBufferUpdate(d.log, d.alloc, segCopy, d.graph, fm, d.cfg.HuCProbUpdate)
	if err != nil {
		return err
	}
	err = d.pipe.AddPre(u)
	if err != nil {
		return err
	}
	if d.cfg.HuCProbUpdate {
		h, err := vp9.NewHucProbUpdate(d.log, d.alloc, fm)
		if err != nil {
			return err
		}
		err = d.graph.Register(packet.HucVP9ProbUpdateID, h)
		if err != nil {
			return err
		}
	}

	if !d.cfg.PostProbCommit {
		return nil
	}
	postCopy, err := d.copier(packet.ProbPostCopyID)
	if err != nil {
		return err
	}
	pu, err := vp9.NewBufferUpdatePost(d.log, d.alloc, postCopy, d.graph, fm)
	if err != nil {
		return err
	}
	return d.pipe.AddPost(pu)
}

func (d *Decoder) buildJPEG() error {
	f, err := jpeg.NewFeature(d.log)
	if err != nil {
		return err
	}
	err = d.newPipeline(f, &f.BasicFeature)
	if err != nil {
		return err
	}
	concat, err := d.copier(packet.BitstreamConcatID)
	if err != nil {
		return err
	}
	in, err := bitstream.NewJPEGInput(d.log, d.alloc, concat, d.graph, d.pipe.Features(), d.immediate())
	if err != nil {
		return err
	}
	return d.pipe.AddPre(in)
}

func (d *Decoder) buildMPEG2() error {
	f, err := mpeg2.NewFeature(d.log)
	if err != nil {
		return err
	}
	err = d.newPipeline(f, &f.BasicFeature)
	if err != nil {
		return err
	}
	concat, err := d.copier(packet.BitstreamConcatID)
	if err != nil {
		return err
	}
	in, err := bitstream.NewMPEG2Input(d.log, d.alloc, concat, d.graph, d.pipe.Features(), d.immediate())
	if err != nil {
		return err
	}
	return d.pipe.AddPre(in)
}

// Begin starts a new frame. Segment buffers of the previous frame are freed.
func (d *Decoder) Begin() error {
	err := d.freeSegments()
	if err != nil {
		return err
	}
	return d.pipe.Begin()
}

// Execute delivers seg, the next part of the current frame, with the
// frame's picture parameters and the slices or scans carried by seg.
func (d *Decoder) Execute(seg []byte, pic, slices interface{}) error {
	size := len(seg)
	if size == 0 {
		size = 1
	}
	b, err := d.alloc.AllocateBuffer(size, "execute call segment", resource.UsageInputBitstream, resource.NotLockable, false)
	if err != nil {
		return errors.Wrap(err, "could not allocate segment")
	}
	d.segments = append(d.segments, b)
	mem, err := d.alloc.Memory(b)
	if err != nil {
		return err
	}
	copy(mem, seg)

	return d.pipe.Execute(&decode.DecodeParams{
		DataBuffer:  b,
		DataSize:    len(seg),
		PicParams:   pic,
		SliceParams: slices,
	})
}

// Complete returns true once the current frame's decode packet has been
// activated.
func (d *Decoder) Complete() bool { return d.pipe.Complete() }

// Frames returns the number of frames submitted for decode.
func (d *Decoder) Frames() int { return d.frames }

// Basic returns the basic feature of the session.
func (d *Decoder) Basic() *decode.BasicFeature { return d.basic }

// Features returns the feature manager of the session.
func (d *Decoder) Features() *decode.FeatureManager { return d.pipe.Features() }

// Close frees every buffer of the session.
func (d *Decoder) Close() error {
	err := d.freeSegments()
	if err != nil {
		return err
	}
	return d.pipe.Close()
}

func (d *Decoder) freeSegments() error {
	for _, b := range d.segments {
		err := d.alloc.Destroy(b)
		if err != nil {
			return errors.Wrap(err, "could not free segment")
		}
	}
	d.segments = d.segments[:0]
	return nil
}

// decodePacket stands in for the hardware decode packet. It writes the
// frame data the hardware would read to the session's sink.
type decodePacket Decoder

// Submit implements packet.Packet.
func (p *decodePacket) Submit() error {
	d := (*Decoder)(p)
	if d.basic.SlicesInvalid {
		return errors.Wrap(status.ErrInvalidParameter, "frame slices invalid")
	}
	mem, err := d.alloc.Memory(d.basic.DataBuffer)
	if err != nil {
		return errors.Wrap(err, "could not map frame data")
	}
	end := d.basic.DataOffset + d.basic.DataSize
	if end > len(mem) {
		return errors.Wrapf(status.ErrNotEnoughSpace, "frame data ends at %d of %d bytes", end, len(mem))
	}
	_, err = d.sink.Write(mem[d.basic.DataOffset:end])
	if err != nil {
		return errors.Wrap(err, "could not write frame data")
	}
	d.frames++
	d.log.Debug("frame decoded", "frame", d.frames, "size", d.basic.DataSize)
	return nil
}
