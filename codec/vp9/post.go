/*
DESCRIPTION
  post.go provides BufferUpdatePost, the sub-pipeline that commits VP9
  probability and frame status state after the decode packet.

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

// Frame status values written after decode.
const (
	StatusKey    = 0
	StatusNonKey = 1
)

// BufferUpdatePost patches the inter region of the current frame context
// with non-key defaults after an intra frame is decoded, and records whether
// the frame was a key frame in the frame status buffer.
type BufferUpdatePost struct {
	log     logging.Logger
	alloc   resource.Allocator
	copier  packet.CopyPacket
	sched   packet.Scheduler
	feature *Feature

	interDefaults *resource.Buffer
	keyStatus     *resource.Buffer
	nonKeyStatus  *resource.Buffer
}

// NewBufferUpdatePost returns a new BufferUpdatePost. The VP9 feature is
// looked up in features under decode.BasicFeatureID.
func NewBufferUpdatePost(log logging.Logger, alloc resource.Allocator, copier packet.CopyPacket, sched packet.Scheduler, features *decode.FeatureManager) (*BufferUpdatePost, error) {
	if log == nil || alloc == nil || copier == nil || sched == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "vp9 post buffer update needs logger, allocator, copier and scheduler")
	}
	f, err := decode.FeatureAs[*Feature](features, decode.BasicFeatureID)
	if err != nil {
		return nil, errors.Wrap(err, "vp9 post buffer update needs vp9 feature")
	}
	u := &BufferUpdatePost{log: log, alloc: alloc, copier: copier, sched: sched, feature: f}

	u.interDefaults, err = u.constant("vp9 inter probability defaults", prob.InterDefaults())
	if err != nil {
		u.Close()
		return nil, err
	}
	u.keyStatus, err = u.constant("vp9 key frame status", []byte{StatusKey})
	if err != nil {
		u.Close()
		return nil, err
	}
	u.nonKeyStatus, err = u.constant("vp9 non-key frame status", []byte{StatusNonKey})
	if err != nil {
		u.Close()
		return nil, err
	}
	return u, nil
}

// constant allocates a buffer holding data.
func (u *BufferUpdatePost) constant(name string, data []byte) (*resource.Buffer, error) {
	b, err := u.alloc.AllocateBuffer(resource.AlignCeil(len(data), resource.CacheLineSize), name, resource.UsageInternalReadWriteCache, resource.LockableVideoMem, true)
	if err != nil {
		return nil, errors.Wrapf(err, "could not allocate %s", name)
	}
	l := resource.NewAutoLock(u.alloc, b)
	mem, err := l.LockForWrite()
	if err != nil {
		u.alloc.Destroy(b)
		return nil, errors.Wrapf(err, "could not lock %s", name)
	}
	copy(mem, data)
	return b, l.Unlock()
}

// Prepare implements decode.SubPipeline. It runs once per frame, on the
// execute call that completes the frame, which may be any call.
func (u *BufferUpdatePost) Prepare(p *decode.Params) error {
	f := u.feature
	if f.Pic == nil || f.Pic.ShowExistingFrame {
		return nil
	}

	if f.Pic.IsIntra() {
		err := u.copier.PushCopyParams(packet.CopyParams{
			Src:       u.interDefaults,
			Dst:       f.ProbBuffers[f.FrameCtxIdx],
			DstOffset: prob.InterProbOffset,
			Length:    prob.InterProbSize,
		})
		if err != nil {
			return errors.Wrap(err, "could not queue inter default copy")
		}
	}

	src := u.nonKeyStatus
	if f.Pic.IsKey() {
		src = u.keyStatus
	}
	err := u.copier.PushCopyParams(packet.CopyParams{Src: src, Dst: f.FrameStatusBuffer, Length: 1})
	if err != nil {
		return errors.Wrap(err, "could not queue frame status copy")
	}
	u.log.Debug("post decode commit", "intra", f.Pic.IsIntra(), "ctx", f.FrameCtxIdx)
	return u.sched.ActivatePacket(packet.ProbPostCopyID, false, 0, 0)
}

// Close destroys the constant buffers.
func (u *BufferUpdatePost) Close() error {
	var first error
	for _, b := range []**resource.Buffer{&u.interDefaults, &u.keyStatus, &u.nonKeyStatus} {
		if *b == nil {
			continue
		}
		err := u.alloc.Destroy(*b)
		if err != nil && first == nil {
			first = err
		}
		*b = nil
	}
	return first
}
