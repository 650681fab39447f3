/*
DESCRIPTION
  update.go provides BufferUpdate, the sub-pipeline that prepares the VP9
  segment ID and probability context buffers before the decode packet, and
  HucProbUpdate, the packet that performs the probability update on the
  device.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package vp9

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/vp9/prob"
	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// mapFunc maps a buffer for writing and returns a function releasing the
// mapping.
type mapFunc func(b *resource.Buffer) (data []byte, release func() error, err error)

// probUpdater applies the probability update decided by a Feature.
type probUpdater struct {
	log   logging.Logger
	saved prob.InterRegion
}

// apply updates the probability buffers of f through m.
func (u *probUpdater) apply(f *Feature, m mapFunc) error {
	ctx := f.FrameCtxIdx
	if f.FullProbBufferUpdate {
		for i, b := range f.ProbBuffers {
			if i != ctx && !f.Flags.ResetAll {
				continue
			}
			err := u.withBuffer(b, m, func(data []byte) error {
				err := prob.ContextBufferInit(data, i == ctx && f.Flags.ResetKeyDefault)
				if err != nil {
					u.log.Error("could not initialise probability buffer", "ctx", i, "error", err.Error())
					return err
				}
				return prob.CopySegProbs(data, f.SegTreeProbs, f.SegPredProbs)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	steps := f.Flags.Steps()
	if len(steps) == 0 {
		return nil
	}
	return u.withBuffer(f.ProbBuffers[ctx], m, func(data []byte) error {
		for _, s := range steps {
			var err error
			switch s {
			case prob.StepSegProbCopy:
				err = prob.CopySegProbs(data, f.SegTreeProbs, f.SegPredProbs)
			case prob.StepSave:
				err = prob.Save(data, &u.saved)
			case prob.StepReset:
				if f.Flags.ResetFull {
					err = prob.ContextBufferInit(data, f.Flags.ResetKeyDefault)
				} else {
					err = prob.CtxBufDiffInit(data, f.Flags.ResetKeyDefault)
				}
			case prob.StepRestore:
				err = prob.Restore(data, &u.saved)
			}
			if err != nil {
				u.log.Error("probability update step failed", "step", s.String(), "ctx", ctx, "error", err.Error())
				return errors.Wrapf(err, "could not apply %v", s)
			}
		}
		return nil
	})
}

func (u *probUpdater) withBuffer(b *resource.Buffer, m mapFunc, fn func([]byte) error) error {
	if b == nil {
		return errors.Wrap(status.ErrNullDependency, "missing probability buffer")
	}
	data, release, err := m(b)
	if err != nil {
		return errors.Wrapf(err, "could not map %s", b.Name)
	}
	defer release()
	return fn(data)
}

// BufferUpdate prepares the segment ID and probability context buffers of a
// frame. If huc is true the probability update is left to the packet
// registered as packet.HucVP9ProbUpdateID.
type BufferUpdate struct {
	probUpdater
	alloc   resource.Allocator
	copier  packet.CopyPacket
	sched   packet.Scheduler
	feature *Feature
	huc     bool

	segInit *resource.Buffer
}

// NewBufferUpdate returns a new BufferUpdate. The VP9 feature is looked up
// in features under decode.BasicFeatureID.
func NewBufferUpdate(log logging.Logger, alloc resource.Allocator, copier packet.CopyPacket, sched packet.Scheduler, features *decode.FeatureManager, huc bool) (*BufferUpdate, error) {
	if log == nil || alloc == nil || copier == nil || sched == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "vp9 buffer update needs logger, allocator, copier and scheduler")
	}
	f, err := decode.FeatureAs[*Feature](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "vp9 buffer update needs vp9 feature")
	}
	return &BufferUpdate{
		probUpdater: probUpdater{log: log},
		alloc:       alloc,
		copier:      copier,
		sched:       sched,
		feature:     f,
		huc:         huc,
	}, nil
}

// Prepare implements decode.SubPipeline.
func (u *BufferUpdate) Prepare(p *decode.Params) error {
	if !p.FirstExecuteCall() || u.feature.Pic == nil || u.feature.Pic.ShowExistingFrame {
		return nil
	}

	if u.feature.ResetSegIDBuffer {
		err := u.resetSegmentIDs()
		if err != nil {
			return err
		}
	}

	if u.huc {
		return u.sched.ActivatePacket(packet.HucVP9ProbUpdateID, false, 0, 0)
	}
	return u.apply(u.feature, u.lock)
}

// lock is a mapFunc locking buffers through the allocator.
func (u *BufferUpdate) lock(b *resource.Buffer) ([]byte, func() error, error) {
	l := resource.NewAutoLock(u.alloc, b)
	data, err := l.LockForWrite()
	if err != nil {
		return nil, nil, err
	}
	return data, l.Unlock, nil
}

// resetSegmentIDs copies zeros from a lockable init buffer into the segment
// ID buffer, submitting the copy immediately.
func (u *BufferUpdate) resetSegmentIDs() error {
	dst := u.feature.SegmentIDBuffer
	if dst == nil {
		return errors.Wrap(status.ErrNullDependency, "missing segment id buffer")
	}

	fresh := false
	switch {
	case u.segInit == nil:
		b, err := u.alloc.AllocateBuffer(dst.Size, "vp9 segment id init", resource.UsageInternalReadWriteCache, resource.LockableVideoMem, true)
		if err != nil {
			return errors.Wrap(err, "could not allocate segment id init buffer")
		}
		u.segInit = b
		fresh = true
	case u.segInit.Size < dst.Size:
		err := u.alloc.Resize(u.segInit, dst.Size, resource.LockableVideoMem, true)
		if err != nil {
			return errors.Wrap(err, "could not resize segment id init buffer")
		}
		fresh = true
	}
	if fresh {
		l := resource.NewAutoLock(u.alloc, u.segInit)
		data, err := l.LockForWrite()
		if err != nil {
			return errors.Wrap(err, "could not lock segment id init buffer")
		}
		clear(data)
		l.Unlock()
	}

	err := u.copier.PushCopyParams(packet.CopyParams{Src: u.segInit, Dst: dst, Length: dst.Size})
	if err != nil {
		return errors.Wrap(err, "could not queue segment id reset")
	}
	u.log.Debug("resetting segment ids", "size", dst.Size)
	return u.sched.ActivatePacket(packet.SegmentInitCopyID, true, 0, 0)
}

// Close destroys the segment ID init buffer.
func (u *BufferUpdate) Close() error {
	if u.segInit == nil {
		return nil
	}
	err := u.alloc.Destroy(u.segInit)
	u.segInit = nil
	return err
}

// HucProbUpdate is a packet performing the probability update of the
// current frame on the device.
type HucProbUpdate struct {
	probUpdater
	mem     packet.Memory
	feature *Feature
}

// NewHucProbUpdate returns a new HucProbUpdate operating on mem.
func NewHucProbUpdate(log logging.Logger, mem packet.Memory, features *decode.FeatureManager) (*HucProbUpdate, error) {
	if log == nil || mem == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "huc probability update needs logger and memory")
	}
	f, err := decode.FeatureAs[*Feature](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "huc probability update needs vp9 feature")
	}
	return &HucProbUpdate{probUpdater: probUpdater{log: log}, mem: mem, feature: f}, nil
}

// Submit implements packet.Packet.
func (h *HucProbUpdate) Submit() error {
	return h.apply(h.feature, func(b *resource.Buffer) ([]byte, func() error, error) {
		data, err := h.mem.Memory(b)
		return data, func() error { return nil }, err
	})
}
