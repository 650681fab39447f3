/*
DESCRIPTION
  mpeg2.go provides MPEG2Input, a bitstream input whose completeness also
  depends on slice coverage of the picture.

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
)

// Slices is implemented by decode features that track slice coverage.
type Slices interface {
	// SlicesCoverPicture returns true once the received slices cover every
	// macroblock row of the picture.
	SlicesCoverPicture() bool
}

// MPEG2Input is an Input for MPEG-2 pictures. A picture is complete when its
// bytes are complete and its slices cover every macroblock row.
type MPEG2Input struct {
	*Input
	slices Slices
}

// NewMPEG2Input returns a new MPEG2Input. The basic feature must also
// implement Slices.
func NewMPEG2Input(log logging.Logger, alloc resource.Allocator, copier packet.CopyPacket, sched packet.Scheduler, features *decode.FeatureManager, immediate bool) (*MPEG2Input, error) {
	in, err := NewInput(log, alloc, copier, sched, features, immediate)
	if err != nil {
		return nil, err
	}
	slices, err := decode.FeatureAs[Slices](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "mpeg2 input needs slice tracking feature")
	}
	return &MPEG2Input{Input: in, slices: slices}, nil
}

// IsComplete implements decode.Completer.
func (in *MPEG2Input) IsComplete() bool {
	return in.Input.IsComplete() && in.slices.SlicesCoverPicture()
}
