/*
DESCRIPTION
  feature.go provides Feature, the VP9 decode feature. It decides, once per
  frame, how the probability context and segment ID buffers must be updated
  and owns those buffers for the life of a session.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package vp9 provides the VP9 decode feature, an uncompressed header parser
// and the sub-pipelines that prepare probability and segment ID buffers
// before and after the decode packet.
package vp9

import (
	"fmt"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/codec/vp9/prob"
	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// ProbUpdateFlags select how the probability buffer of the current frame
// context is updated.
type ProbUpdateFlags struct {
	SegProbCopy     bool // Copy segmentation tree and prediction probabilities.
	ProbSave        bool // Save the inter region before reset.
	ProbReset       bool
	ResetFull       bool // Reset the whole buffer, else only the inter region.
	ResetKeyDefault bool // Reset to key frame defaults.
	ResetAll        bool // Reset every frame context.
	ProbRestore     bool // Restore a saved inter region.
}

// Enabled returns true if step s is selected.
func (f ProbUpdateFlags) Enabled(s prob.Step) bool {
	switch s {
	case prob.StepSegProbCopy:
		return f.SegProbCopy
	case prob.StepSave:
		return f.ProbSave
	case prob.StepReset:
		return f.ProbReset
	case prob.StepRestore:
		return f.ProbRestore
	}
	return false
}

// Steps returns the selected partial update steps in application order.
func (f ProbUpdateFlags) Steps() []prob.Step {
	var steps []prob.Step
	for _, s := range prob.Order {
		if f.Enabled(s) {
			steps = append(steps, s)
		}
	}
	return steps
}

func (f ProbUpdateFlags) String() string {
	return fmt.Sprintf("%v full=%v key=%v all=%v", f.Steps(), f.ResetFull, f.ResetKeyDefault, f.ResetAll)
}

// Feature is the VP9 decode feature.
type Feature struct {
	decode.BasicFeature

	log        logging.Logger
	alloc      resource.Allocator
	postCommit bool

	// Per frame state, set on the first execute call of a frame.
	Pic                  *PicParams
	FrameCtxIdx          int
	ResetSegIDBuffer     bool
	FullProbBufferUpdate bool
	Flags                ProbUpdateFlags
	SegTreeProbs         [prob.SegTreeProbs]uint8
	SegPredProbs         [prob.SegPredProbs]uint8

	// Session buffers.
	ProbBuffers       [prob.NumFrameContexts]*resource.Buffer
	SegmentIDBuffer   *resource.Buffer
	FrameStatusBuffer *resource.Buffer

	// Cross frame state.
	width, height       int
	pendingResetPartial [prob.NumFrameContexts]bool
	savedCtx            int
}

// NewFeature returns a new Feature with its probability context buffers
// allocated and set to non-key frame defaults. If postCommit is true,
// contexts reset to key frame defaults are restored to inter defaults after
// decode by BufferUpdatePost rather than before the next inter frame.
func NewFeature(log logging.Logger, alloc resource.Allocator, postCommit bool) (*Feature, error) {
	if log == nil || alloc == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "vp9 feature needs logger and allocator")
	}
	f := &Feature{
		BasicFeature: decode.BasicFeature{Codec: codecutil.VP9},
		log:          log,
		alloc:        alloc,
		postCommit:   postCommit,
		savedCtx:     -1,
	}

	for i := range f.ProbBuffers {
		b, err := alloc.AllocateBuffer(prob.MaxNumElem, fmt.Sprintf("vp9 probability context %d", i), resource.UsageInternalReadWriteCache, resource.LockableVideoMem, true)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "could not allocate probability buffer")
		}
		f.ProbBuffers[i] = b
		err = initContext(alloc, b, false, defaultSegTree(), defaultSegPred())
		if err != nil {
			f.Close()
			return nil, err
		}
	}

	b, err := alloc.AllocateBuffer(resource.CacheLineSize, "vp9 frame status", resource.UsageStatus, resource.NotLockable, true)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "could not allocate frame status buffer")
	}
	f.FrameStatusBuffer = b
	return f, nil
}

// Update implements decode.Feature. Frame level decisions are made on the
// first execute call of a frame only.
func (f *Feature) Update(p *decode.Params) error {
	err := f.BasicFeature.Update(p)
	if err != nil {
		return err
	}
	if !p.FirstExecuteCall() {
		return nil
	}

	pic, ok := p.Decode.PicParams.(*PicParams)
	if !ok || pic == nil {
		return errors.Wrapf(status.ErrInvalidParameter, "vp9 feature needs *vp9.PicParams, got %T", p.Decode.PicParams)
	}
	if pic.FrameContextIdx < 0 || pic.FrameContextIdx >= prob.NumFrameContexts {
		return errors.Wrapf(status.ErrInvalidParameter, "frame context index %d out of range", pic.FrameContextIdx)
	}
	f.Pic = pic
	f.RequiredSize = pic.BitstreamSize
	if f.RequiredSize == 0 {
		f.RequiredSize = p.Decode.DataSize
	}

	if pic.ShowExistingFrame {
		f.ResetSegIDBuffer = false
		f.FullProbBufferUpdate = false
		f.Flags = ProbUpdateFlags{}
		f.log.Debug("showing existing frame", "slot", pic.FrameToShow)
		return nil
	}
	if pic.FrameWidth <= 0 || pic.FrameHeight <= 0 {
		return errors.Wrapf(status.ErrInvalidParameter, "bad frame size %dx%d", pic.FrameWidth, pic.FrameHeight)
	}

	f.determine(pic)
	return f.allocateSegmentIDs(pic)
}

// determine sets the per frame update decisions and advances the cross
// frame state.
func (f *Feature) determine(pic *PicParams) {
	key := pic.IsKey()
	intra := pic.IsIntra()
	scaling := pic.FrameWidth != f.width || pic.FrameHeight != f.height
	resetAll := key || pic.ErrorResilientMode || (pic.IntraOnly && pic.ResetFrameContext == ResetAllCtxts)
	resetSpecified := pic.IntraOnly && pic.ResetFrameContext == ResetCurrent

	f.FrameCtxIdx = pic.FrameContextIdx
	if resetAll {
		f.FrameCtxIdx = 0
	}
	ctx := f.FrameCtxIdx

	f.ResetSegIDBuffer = key || scaling || pic.ErrorResilientMode || pic.IntraOnly
	f.SegTreeProbs = pic.SegTreeProbs
	f.SegPredProbs = pic.SegPredProbs
	if !pic.SegmentationTemporalUpdate {
		f.SegPredProbs = defaultSegPred()
	}

	f.FullProbBufferUpdate = false
	f.Flags = ProbUpdateFlags{SegProbCopy: pic.SegmentationEnabled && pic.SegmentationUpdateMap}

	switch {
	case resetAll || resetSpecified:
		f.FullProbBufferUpdate = true
		f.Flags.ProbReset = true
		f.Flags.ResetFull = true
		f.Flags.ResetKeyDefault = intra
		f.Flags.ResetAll = resetAll
		if resetAll {
			f.pendingResetPartial = [prob.NumFrameContexts]bool{}
			f.savedCtx = -1
		}
		if f.savedCtx == ctx {
			f.savedCtx = -1
		}
		if !f.postCommit {
			f.pendingResetPartial[ctx] = intra
		}

	case pic.IntraOnly:
		f.Flags.ProbSave = true
		f.Flags.ProbReset = true
		f.Flags.ResetKeyDefault = true
		f.savedCtx = ctx

	default:
		if f.pendingResetPartial[ctx] {
			f.Flags.ProbReset = true
			f.pendingResetPartial[ctx] = false
		}
		if f.savedCtx == ctx {
			f.Flags.ProbRestore = true
			f.savedCtx = -1
		}
	}

	f.width, f.height = pic.FrameWidth, pic.FrameHeight
	f.log.Debug("vp9 buffer update decided", "key", key, "intraOnly", pic.IntraOnly, "ctx", ctx, "full", f.FullProbBufferUpdate, "flags", f.Flags.String(), "resetSegIDs", f.ResetSegIDBuffer)
}

// allocateSegmentIDs makes the segment ID buffer hold one byte per 8x8 block
// of the frame. The buffer only grows.
func (f *Feature) allocateSegmentIDs(pic *PicParams) error {
	size := pic.Superblocks() * 64
	if f.SegmentIDBuffer == nil {
		b, err := f.alloc.AllocateBuffer(size, "vp9 segment id", resource.UsageInternalReadWriteCache, resource.NotLockable, true)
		if err != nil {
			return errors.Wrap(err, "could not allocate segment id buffer")
		}
		f.SegmentIDBuffer = b
		return nil
	}
	if f.SegmentIDBuffer.Size >= size {
		return nil
	}
	err := f.alloc.Resize(f.SegmentIDBuffer, size, resource.NotLockable, true)
	if err != nil {
		return errors.Wrap(err, "could not resize segment id buffer")
	}
	return nil
}

// Close destroys the session buffers.
func (f *Feature) Close() error {
	var first error
	destroy := func(b **resource.Buffer) {
		if *b == nil {
			return
		}
		err := f.alloc.Destroy(*b)
		if err != nil && first == nil {
			first = err
		}
		*b = nil
	}
	for i := range f.ProbBuffers {
		destroy(&f.ProbBuffers[i])
	}
	destroy(&f.SegmentIDBuffer)
	destroy(&f.FrameStatusBuffer)
	return first
}

func defaultSegTree() (p [prob.SegTreeProbs]uint8) {
	for i := range p {
		p[i] = 255
	}
	return p
}

func defaultSegPred() (p [prob.SegPredProbs]uint8) {
	for i := range p {
		p[i] = 255
	}
	return p
}

// initContext locks b and initialises it with default probabilities and the
// given segmentation probabilities.
func initContext(alloc resource.Allocator, b *resource.Buffer, key bool, tree [prob.SegTreeProbs]uint8, pred [prob.SegPredProbs]uint8) error {
	l := resource.NewAutoLock(alloc, b)
	data, err := l.LockForWrite()
	if err != nil {
		return errors.Wrap(err, "could not lock probability buffer")
	}
	defer l.Unlock()
	err = prob.ContextBufferInit(data, key)
	if err != nil {
		return err
	}
	return prob.CopySegProbs(data, tree, pred)
}
