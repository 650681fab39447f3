/*
DESCRIPTION
  refframes.go provides RefFrames, which maps the reference frame list of
  an HEVC picture onto hardware frame stores and derives the low delay and
  same reference list flags of the picture.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package hevc provides HEVC reference frame management.
package hevc

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// RefList is the compacted reference list recorded for a reconstructed
// surface.
type RefList struct {
	POC  int
	Refs []Picture
}

// NumRef returns the number of unique references in the list.
func (l *RefList) NumRef() int { return len(l.Refs) }

// RefFrames tracks the references of the current picture. UpdatePicture must
// be called for each picture before UpdateSlice.
type RefFrames struct {
	log logging.Logger

	lists [NumSurfaces]*RefList
	curr  *RefList
	pic   *PicParams

	// canon maps each reference frame list slot to the first slot holding the
	// same surface, or -1 for invalid slots.
	canon      [MaxRefFrames]int
	used       [MaxRefFrames]bool
	frameStore [MaxRefFrames]int

	codingType  int
	lowDelay    bool
	sameRefList bool
}

// NewRefFrames returns a new RefFrames.
func NewRefFrames(log logging.Logger) (*RefFrames, error) {
	if log == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "reference frames need logger")
	}
	r := &RefFrames{log: log}
	for i := range r.frameStore {
		r.canon[i] = -1
		r.frameStore[i] = -1
	}
	return r, nil
}

// UpdatePicture records the unique references of pic. Duplicate surfaces are
// recorded once, at their first slot. A picture with no valid references is
// coded as an I picture whatever its signalled type.
func (r *RefFrames) UpdatePicture(pic *PicParams) error {
	if pic == nil {
		return errors.Wrap(status.ErrNullDependency, "nil picture params")
	}
	if !pic.CurrPic.Valid() {
		return errors.Wrapf(status.ErrInvalidParameter, "bad current picture %d", pic.CurrPic.FrameIdx)
	}

	curr := r.lists[pic.CurrPic.FrameIdx]
	if curr == nil {
		curr = &RefList{}
		r.lists[pic.CurrPic.FrameIdx] = curr
	}
	curr.POC = pic.CurrPOC
	curr.Refs = curr.Refs[:0]

	for i, ref := range pic.RefFrameList {
		r.canon[i] = -1
		r.used[i] = false
		r.frameStore[i] = -1
		if !ref.Valid() {
			continue
		}
		r.canon[i] = i
		for j := 0; j < i; j++ {
			if r.canon[j] == j && pic.RefFrameList[j].FrameIdx == ref.FrameIdx {
				r.canon[i] = j
				break
			}
		}
		if r.canon[i] == i {
			curr.Refs = append(curr.Refs, ref)
		}
	}

	r.pic = pic
	r.curr = curr
	r.codingType = pic.CodingType
	if len(curr.Refs) == 0 && r.codingType != IType {
		r.log.Debug("no references, coding as I picture", "signalled", pic.CodingType)
		r.codingType = IType
	}
	return nil
}

// UpdateSlice finds the references used by the slices of the current picture
// and maps them densely onto frame stores in reference frame list order. The
// low delay and same reference list flags are cleared by any slice that
// violates them.
func (r *RefFrames) UpdateSlice(slices []SliceParams) error {
	if r.pic == nil {
		return errors.Wrap(status.ErrNullDependency, "slices before picture")
	}
	for i := range r.used {
		r.used[i] = false
		r.frameStore[i] = -1
	}
	r.lowDelay = true
	r.sameRefList = true

	for n := range slices {
		s := &slices[n]
		lists := 0
		switch s.Type {
		case SliceI:
		case SliceP:
			lists = 1
		case SliceB:
			lists = 2
		default:
			return errors.Wrapf(status.ErrInvalidParameter, "slice %d has bad type %d", n, s.Type)
		}

		for l := 0; l < lists; l++ {
			if s.NumRefIdxActive[l] < 0 || s.NumRefIdxActive[l] > MaxRefFrames {
				return errors.Wrapf(status.ErrInvalidParameter, "slice %d list %d has %d active references", n, l, s.NumRefIdxActive[l])
			}
			for k := 0; k < s.NumRefIdxActive[l]; k++ {
				slot, err := r.slot(s.RefPicList[l][k])
				if err != nil {
					return errors.Wrapf(err, "slice %d list %d entry %d", n, l, k)
				}
				r.used[slot] = true
				if r.pic.RefPOC[slot] > r.pic.CurrPOC {
					r.lowDelay = false
				}
			}
		}

		if s.Type == SliceB {
			m := s.NumRefIdxActive[0]
			if s.NumRefIdxActive[1] < m {
				m = s.NumRefIdxActive[1]
			}
			for k := 0; k < m; k++ {
				a, _ := r.slot(s.RefPicList[0][k])
				b, _ := r.slot(s.RefPicList[1][k])
				if a != b {
					r.sameRefList = false
				}
			}
		}
	}

	id := 0
	for i, used := range r.used {
		if !used {
			continue
		}
		if id == NumFrameStores {
			return errors.Wrapf(status.ErrInvalidParameter, "more than %d references used", NumFrameStores)
		}
		r.frameStore[i] = id
		id++
	}
	r.log.Debug("mapped references", "frameStores", id, "lowDelay", r.lowDelay, "sameRefList", r.sameRefList)
	return nil
}

// slot returns the canonical reference frame list slot of a slice reference.
func (r *RefFrames) slot(ref Picture) (int, error) {
	if ref.Flags&FlagInvalid != 0 || ref.FrameIdx < 0 || ref.FrameIdx >= MaxRefFrames {
		return -1, errors.Wrapf(status.ErrInvalidParameter, "bad reference index %d", ref.FrameIdx)
	}
	slot := r.canon[ref.FrameIdx]
	if slot < 0 {
		return -1, errors.Wrapf(status.ErrInvalidParameter, "reference index %d names an invalid frame", ref.FrameIdx)
	}
	return slot, nil
}

// ColocatedFrameStoreID returns the frame store of the collocated reference
// of slice s, or -1 if temporal motion vector prediction is disabled.
func (r *RefFrames) ColocatedFrameStoreID(s *SliceParams) (int, error) {
	if r.pic == nil || s == nil {
		return -1, errors.Wrap(status.ErrNullDependency, "no picture or slice")
	}
	if !r.pic.TMVPEnabled {
		return -1, nil
	}
	l := 1
	if s.Type != SliceB || s.CollocatedFromL0 {
		l = 0
	}
	idx := s.CollocatedRefIdx
	if idx < 0 || idx >= s.NumRefIdxActive[l] || idx >= MaxRefFrames {
		return -1, errors.Wrapf(status.ErrInvalidParameter, "collocated index %d outside list %d of %d", idx, l, s.NumRefIdxActive[l])
	}
	slot, err := r.slot(s.RefPicList[l][idx])
	if err != nil {
		return -1, errors.Wrap(err, "collocated reference")
	}
	id := r.frameStore[slot]
	if id < 0 {
		return -1, errors.Wrapf(status.ErrInvalidParameter, "collocated reference slot %d has no frame store", slot)
	}
	return id, nil
}

// FrameStoreID returns the frame store mapped to reference frame list slot
// i, and false if the slot is unused by the current picture.
func (r *RefFrames) FrameStoreID(i int) (int, bool) {
	if i < 0 || i >= MaxRefFrames || r.frameStore[i] < 0 {
		return -1, false
	}
	return r.frameStore[i], true
}

// RefList returns the reference list recorded for the current picture.
func (r *RefFrames) RefList() *RefList { return r.curr }

// CodingType returns the effective coding type of the current picture.
func (r *RefFrames) CodingType() int { return r.codingType }

// LowDelay returns true if no slice of the current picture references a
// picture following it in output order.
func (r *RefFrames) LowDelay() bool { return r.lowDelay }

// SameRefList returns true if every B slice of the current picture has
// identical leading entries in both reference picture lists.
func (r *RefFrames) SameRefList() bool { return r.sameRefList }
