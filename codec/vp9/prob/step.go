/*
DESCRIPTION
  step.go provides the ordered steps of a partial probability buffer update
  and the buffer operations behind them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package prob

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// Step is one step of a partial update of a context buffer.
type Step int

// Partial update steps.
const (
	StepSegProbCopy Step = iota // Copy segmentation tree and prediction probabilities.
	StepSave                    // Save the inter region.
	StepReset                   // Reset to defaults.
	StepRestore                 // Restore a saved inter region.
)

// Order is the order in which partial update steps are applied. A reset
// followed by a restore leaves the restored inter region in place.
var Order = [...]Step{StepSegProbCopy, StepSave, StepReset, StepRestore}

func (s Step) String() string {
	switch s {
	case StepSegProbCopy:
		return "seg-prob-copy"
	case StepSave:
		return "save"
	case StepReset:
		return "reset"
	case StepRestore:
		return "restore"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// InterRegion holds a saved copy of the inter region of a context buffer.
type InterRegion [InterProbSize]byte

// CopySegProbs writes segmentation tree and prediction probabilities to buf.
func CopySegProbs(buf []byte, tree [SegTreeProbs]uint8, pred [SegPredProbs]uint8) error {
	if len(buf) < MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "probability buffer is %d bytes, need %d", len(buf), MaxNumElem)
	}
	n := copy(buf[SegProbOffset:], tree[:])
	copy(buf[SegProbOffset+n:], pred[:])
	return nil
}

// Save copies the inter region of buf to dst.
func Save(buf []byte, dst *InterRegion) error {
	if len(buf) < MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "probability buffer is %d bytes, need %d", len(buf), MaxNumElem)
	}
	copy(dst[:], buf[InterProbOffset:InterProbOffset+InterProbSize])
	return nil
}

// Restore copies src to the inter region of buf.
func Restore(buf []byte, src *InterRegion) error {
	if len(buf) < MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "probability buffer is %d bytes, need %d", len(buf), MaxNumElem)
	}
	copy(buf[InterProbOffset:], src[:])
	return nil
}
