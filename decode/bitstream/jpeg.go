/*
DESCRIPTION
  jpeg.go provides JPEGInput, a bitstream input whose completeness also
  depends on the number of scans received.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package bitstream

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// Scans is implemented by decode features that track JPEG scans.
type Scans interface {
	NumScans() int   // Scans received so far.
	TotalScans() int // Scans declared by the frame header.
	HeaderSize() int // Bytes preceding the first scan's entropy coded data.
}

// segment is a deferred execute call segment.
type segment struct {
	buf  *resource.Buffer
	off  int
	size int
}

// JPEGInput is an Input for JPEG frames. A frame is complete when both its
// bytes and its scans are complete. When the first execute call does not
// carry every scan, assembly is deferred to the next call because the
// required size is not yet known.
type JPEGInput struct {
	*Input
	scans   Scans
	pending *segment
}

// NewJPEGInput returns a new JPEGInput. The basic feature must also
// implement Scans.
func NewJPEGInput(log logging.Logger, alloc resource.Allocator, copier packet.CopyPacket, sched packet.Scheduler, features *decode.FeatureManager, immediate bool) (*JPEGInput, error) {
	in, err := NewInput(log, alloc, copier, sched, features, immediate)
	if err != nil {
		return nil, err
	}
	scans, err := decode.FeatureAs[Scans](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "jpeg input needs scan tracking feature")
	}
	return &JPEGInput{Input: in, scans: scans}, nil
}

// Prepare implements decode.SubPipeline.
func (in *JPEGInput) Prepare(p *decode.Params) error {
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
func (in *JPEGInput) Begin() {
	in.Input.Begin()
	in.pending = nil
}

// Append adds the segment of an execute call to the frame.
func (in *JPEGInput) Append(d *decode.DecodeParams) error {
	if d == nil {
		return errors.Wrap(status.ErrNullDependency, "nil decode params")
	}
	in.required = in.basic.RequiredSize

	if d.ExecuteCallIndex != 0 {
		if in.pending == nil {
			return in.next(d)
		}
		p := in.pending
		in.pending = nil
		err := in.start()
		if err != nil {
			return err
		}
		err = in.place(p.buf, p.off, p.size)
		if err != nil {
			return err
		}
		return in.next(d)
	}

	in.received = d.DataSize
	bytesDone := d.DataSize >= in.required
	scansDone := in.scans.NumScans() >= in.scans.TotalScans()
	switch {
	case bytesDone && scansDone:
		in.log.Debug("first segment covers frame", "size", d.DataSize, "scans", in.scans.NumScans())
		return nil
	case scansDone:
		if d.DataSize < in.scans.HeaderSize() {
			in.basic.SlicesInvalid = true
			in.log.Error("first segment shorter than jpeg header", "size", d.DataSize, "header", in.scans.HeaderSize())
			return errors.Wrapf(status.ErrInvalidParameter, "segment of %d bytes shorter than %d byte header", d.DataSize, in.scans.HeaderSize())
		}
		err := in.start()
		if err != nil {
			return err
		}
		return in.place(d.DataBuffer, d.DataOffset, d.DataSize)
	default:
		in.log.Debug("scans incomplete, deferring assembly", "scans", in.scans.NumScans(), "total", in.scans.TotalScans())
		in.pending = &segment{buf: d.DataBuffer, off: d.DataOffset, size: d.DataSize}
		return nil
	}
}

// IsComplete implements decode.Completer.
func (in *JPEGInput) IsComplete() bool {
	return in.Input.IsComplete() && in.scans.NumScans() >= in.scans.TotalScans()
}
