/*
DESCRIPTION
  input.go provides Input, which presents the decode hardware with a single
  contiguous bitstream buffer per frame when a frame is delivered over more
  than one execute call.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package bitstream provides the bitstream input sub-pipelines that assemble
// the segments of a coded frame into one hardware readable buffer.
package bitstream

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// Input assembles the segments of a frame. If the first segment of a frame
// holds the frame's required size the hardware reads it in place. Otherwise
// segments are copied, in call order, into a catenated buffer. Each copy is
// exact but the placement of the next segment advances to the next cache line.
type Input struct {
	log       logging.Logger
	alloc     resource.Allocator
	copier    packet.CopyPacket
	sched     packet.Scheduler
	basic     *decode.BasicFeature
	immediate bool

	catenated *resource.Buffer
	inUse     bool // Catenated buffer holds the current frame.
	required  int  // Bytes declared by the frame.
	received  int  // Bytes received so far.
	cursor    int  // Placement offset of the next segment.
}

// NewInput returns a new Input. The basic feature is looked up in features
// under decode.BasicFeatureID. If immediate is true each concatenation copy
// is submitted as soon as it is queued.
func NewInput(log logging.Logger, alloc resource.Allocator, copier packet.CopyPacket, sched packet.Scheduler, features *decode.FeatureManager, immediate bool) (*Input, error) {
	if log == nil || alloc == nil || copier == nil || sched == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "bitstream input needs logger, allocator, copier and scheduler")
	}
	bp, err := decode.FeatureAs[decode.BasicProvider](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "bitstream input needs basic feature")
	}
	return &Input{
		log:       log,
		alloc:     alloc,
		copier:    copier,
		sched:     sched,
		basic:     bp.Basic(),
		immediate: immediate,
	}, nil
}

// Prepare implements decode.SubPipeline.
func (in *Input) Prepare(p *decode.Params) error {
	switch p.Mode {
	case decode.ModeBegin:
		in.Begin()
		return nil
	case decode.ModeProcess:
		return in.Append(p.Decode)
	}
	return nil
}

// Begin resets the running totals for a new frame.
func (in *Input) Begin() {
	in.inUse = false
	in.required = 0
	in.received = 0
	in.cursor = 0
}

// Append adds the segment of an execute call to the frame.
func (in *Input) Append(d *decode.DecodeParams) error {
	if d == nil {
		return errors.Wrap(status.ErrNullDependency, "nil decode params")
	}
	if d.ExecuteCallIndex == 0 {
		in.required = in.basic.RequiredSize
		in.received = d.DataSize
		if d.DataSize >= in.required {
			in.log.Debug("first segment covers frame", "size", d.DataSize, "required", in.required)
			return nil
		}
		err := in.start()
		if err != nil {
			return err
		}
		return in.place(d.DataBuffer, d.DataOffset, d.DataSize)
	}
	return in.next(d)
}

// IsComplete implements decode.Completer. It returns true once the received
// bytes reach the frame's required size.
func (in *Input) IsComplete() bool {
	return in.received >= in.required
}

// Close destroys the catenated buffer.
func (in *Input) Close() error {
	if in.catenated == nil {
		return nil
	}
	err := in.alloc.Destroy(in.catenated)
	in.catenated = nil
	return err
}

// next appends a segment of a subsequent execute call.
func (in *Input) next(d *decode.DecodeParams) error {
	if in.received+d.DataSize > in.required {
		in.basic.SlicesInvalid = true
		in.log.Error("bitstream exceeds required size", "received", in.received, "segment", d.DataSize, "required", in.required)
		return errors.Wrapf(status.ErrInvalidParameter, "segment of %d bytes exceeds required size %d with %d received", d.DataSize, in.required, in.received)
	}
	if !in.inUse {
		// Only reachable with an empty first segment and zero required size.
		err := in.start()
		if err != nil {
			return err
		}
	}
	in.received += d.DataSize
	return in.place(d.DataBuffer, d.DataOffset, d.DataSize)
}

// start makes the catenated buffer hold at least the required size, rounded
// up to a cache line, and redirects the basic feature to it.
func (in *Input) start() error {
	size := resource.AlignCeil(in.required, resource.CacheLineSize)
	if size == 0 {
		size = resource.CacheLineSize
	}
	err := in.reserve(size)
	if err != nil {
		return err
	}
	in.inUse = true
	in.cursor = 0
	in.basic.DataBuffer = in.catenated
	in.basic.DataOffset = 0
	in.basic.DataSize = 0
	return nil
}

// reserve allocates or grows the catenated buffer to at least size bytes.
func (in *Input) reserve(size int) error {
	if in.catenated == nil {
		b, err := in.alloc.AllocateBuffer(size, "catenated bitstream", resource.UsageInputBitstream, resource.NotLockable, true)
		if err != nil {
			return errors.Wrap(err, "could not allocate catenated buffer")
		}
		in.catenated = b
		return nil
	}
	if in.catenated.Size >= size {
		return nil
	}
	err := in.alloc.Resize(in.catenated, size, resource.NotLockable, true)
	if err != nil {
		return errors.Wrap(err, "could not resize catenated buffer")
	}
	return nil
}

// place queues a copy of a segment at the cursor and advances the cursor by
// the cache line aligned segment size.
func (in *Input) place(src *resource.Buffer, off, size int) error {
	err := in.reserve(in.cursor + size)
	if err != nil {
		return err
	}
	if size > 0 {
		err = in.copier.PushCopyParams(packet.CopyParams{
			Src:       src,
			SrcOffset: off,
			Dst:       in.catenated,
			DstOffset: in.cursor,
			Length:    size,
		})
		if err != nil {
			return errors.Wrap(err, "could not queue segment copy")
		}
		err = in.sched.ActivatePacket(packet.BitstreamConcatID, in.immediate, 0, 0)
		if err != nil {
			return errors.Wrap(err, "could not activate concat packet")
		}
	}
	in.log.Debug("appended segment", "offset", in.cursor, "size", size, "received", in.received, "required", in.required)
	in.basic.DataSize = in.cursor + size
	in.cursor += resource.AlignCeil(size, resource.CacheLineSize)
	return nil
}
