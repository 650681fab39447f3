/*
DESCRIPTION
  feature.go provides the basic decode feature shared by all codecs and a
  typed registry of per-session features.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package decode

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// FeatureID identifies a feature in a FeatureManager.
type FeatureID int

// Feature IDs.
const (
	BasicFeatureID FeatureID = iota
)

// Feature is per-session decode state updated on every execute call.
type Feature interface {
	Update(p *Params) error
}

// BasicProvider is implemented by features embedding a BasicFeature.
type BasicProvider interface {
	Basic() *BasicFeature
}

// BasicFeature holds the state every codec feature shares: the current
// execute call's segment and the buffer the decode hardware reads.
type BasicFeature struct {
	Codec string

	// Segment of the current execute call.
	SegmentBuffer *resource.Buffer
	SegmentOffset int
	SegmentSize   int

	// Data read by the decode hardware. Set from the first segment of a frame
	// and redirected when segments are concatenated.
	DataBuffer *resource.Buffer
	DataOffset int
	DataSize   int

	// RequiredSize is the number of bitstream bytes the frame declares.
	RequiredSize int

	// SlicesInvalid is set when the frame's bitstream failed validation.
	SlicesInvalid bool
}

// Basic implements BasicProvider.
func (b *BasicFeature) Basic() *BasicFeature { return b }

// Update records the segment of the execute call described by p. On the first
// execute call of a frame the segment also becomes the decode data.
func (b *BasicFeature) Update(p *Params) error {
	if p.Decode == nil {
		return nil
	}
	d := p.Decode
	if d.DataBuffer == nil {
		return errors.Wrap(status.ErrNullDependency, "execute call has no data buffer")
	}
	if d.DataOffset < 0 || d.DataSize < 0 || d.DataOffset+d.DataSize > d.DataBuffer.Size {
		return errors.Wrapf(status.ErrInvalidParameter, "segment offset %d size %d outside %d byte buffer", d.DataOffset, d.DataSize, d.DataBuffer.Size)
	}
	b.SegmentBuffer = d.DataBuffer
	b.SegmentOffset = d.DataOffset
	b.SegmentSize = d.DataSize

	if p.FirstExecuteCall() {
		b.DataBuffer = d.DataBuffer
		b.DataOffset = d.DataOffset
		b.DataSize = d.DataSize
		b.SlicesInvalid = false
	}
	return nil
}

// FeatureManager is a registry of features keyed by FeatureID. Features are
// updated in registration order.
type FeatureManager struct {
	ids      []FeatureID
	features map[FeatureID]Feature
}

// NewFeatureManager returns an empty FeatureManager.
func NewFeatureManager() *FeatureManager {
	return &FeatureManager{features: make(map[FeatureID]Feature)}
}

// Register adds f under id.
func (m *FeatureManager) Register(id FeatureID, f Feature) error {
	if f == nil {
		return errors.Wrapf(status.ErrNullDependency, "nil feature for id %d", id)
	}
	if _, ok := m.features[id]; ok {
		return errors.Wrapf(status.ErrInvalidParameter, "feature %d already registered", id)
	}
	m.ids = append(m.ids, id)
	m.features[id] = f
	return nil
}

// Get returns the feature registered under id.
func (m *FeatureManager) Get(id FeatureID) (Feature, bool) {
	f, ok := m.features[id]
	return f, ok
}

// Update updates every feature with p.
func (m *FeatureManager) Update(p *Params) error {
	for _, id := range m.ids {
		err := m.features[id].Update(p)
		if err != nil {
			return errors.Wrapf(err, "could not update feature %d", id)
		}
	}
	return nil
}

// Close closes every feature implementing io.Closer, returning the first
// error.
func (m *FeatureManager) Close() error {
	var first error
	for _, id := range m.ids {
		c, ok := m.features[id].(io.Closer)
		if !ok {
			continue
		}
		err := c.Close()
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FeatureAs returns the feature registered under id as a T. A missing
// feature, or one that is not a T, is a null dependency.
func FeatureAs[T any](m *FeatureManager, id FeatureID) (T, error) {
	var zero T
	if m == nil {
		return zero, errors.Wrap(status.ErrNullDependency, "nil feature manager")
	}
	f, ok := m.features[id]
	if !ok {
		return zero, errors.Wrapf(status.ErrNullDependency, "no feature registered for id %d", id)
	}
	t, ok := f.(T)
	if !ok {
		return zero, errors.Wrapf(status.ErrNullDependency, "feature %d is %T", id, f)
	}
	return t, nil
}
