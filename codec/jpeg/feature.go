/*
DESCRIPTION
  feature.go provides Feature, the JPEG decode feature, which tracks the
  scans of an image as they arrive over execute calls.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package jpeg provides the JPEG decode feature, a marker parser locating an
// image's scans and a lexer splitting concatenated images.
package jpeg

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/status"
)

// Feature is the JPEG decode feature. The required size of an image is the
// end of the furthest scan received so far, so it grows as scans arrive.
type Feature struct {
	decode.BasicFeature

	log logging.Logger

	Pic        *PicParams
	numScans   int
	headerSize int
}

// NewFeature returns a new Feature.
func NewFeature(log logging.Logger) (*Feature, error) {
	if log == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "jpeg feature needs logger")
	}
	return &Feature{BasicFeature: decode.BasicFeature{Codec: codecutil.JPEG}, log: log}, nil
}

// Update implements decode.Feature.
func (f *Feature) Update(p *decode.Params) error {
	err := f.BasicFeature.Update(p)
	if err != nil {
		return err
	}
	if p.Decode == nil {
		return nil
	}

	if p.FirstExecuteCall() {
		pic, ok := p.Decode.PicParams.(*PicParams)
		if !ok || pic == nil {
			return errors.Wrapf(status.ErrInvalidParameter, "jpeg feature needs *jpeg.PicParams, got %T", p.Decode.PicParams)
		}
		if pic.Width <= 0 || pic.Height <= 0 || pic.NumComponents <= 0 || pic.NumComponents > maxComponents || pic.TotalScans <= 0 {
			return errors.Wrapf(status.ErrInvalidParameter, "bad picture %dx%d with %d components and %d scans", pic.Width, pic.Height, pic.NumComponents, pic.TotalScans)
		}
		f.Pic = pic
		f.numScans = 0
		f.headerSize = 0
		f.RequiredSize = 0
	}

	if p.Decode.SliceParams == nil {
		return nil
	}
	scans, ok := p.Decode.SliceParams.(*ScanParams)
	if !ok {
		return errors.Wrapf(status.ErrInvalidParameter, "jpeg feature needs *jpeg.ScanParams, got %T", p.Decode.SliceParams)
	}
	if scans == nil {
		return nil
	}
	for _, s := range scans.Scans {
		if s.DataOffset < 0 || s.DataLength <= 0 || s.NumComponents <= 0 || s.NumComponents > maxComponents {
			f.SlicesInvalid = true
			return errors.Wrapf(status.ErrInvalidParameter, "bad scan at offset %d length %d with %d components", s.DataOffset, s.DataLength, s.NumComponents)
		}
		if f.numScans == 0 {
			f.headerSize = s.DataOffset
		}
		f.numScans++
		if f.numScans > f.Pic.TotalScans {
			f.SlicesInvalid = true
			return errors.Wrapf(status.ErrInvalidParameter, "scan %d of %d", f.numScans, f.Pic.TotalScans)
		}
		if end := s.DataOffset + s.DataLength; end > f.RequiredSize {
			f.RequiredSize = end
		}
	}
	f.log.Debug("jpeg scans updated", "scans", f.numScans, "total", f.Pic.TotalScans, "required", f.RequiredSize)
	return nil
}

// NumScans returns the number of scans received for the current image.
func (f *Feature) NumScans() int { return f.numScans }

// TotalScans returns the number of scans in the current image.
func (f *Feature) TotalScans() int {
	if f.Pic == nil {
		return 0
	}
	return f.Pic.TotalScans
}

// HeaderSize returns the number of bytes preceding the first scan's data.
func (f *Feature) HeaderSize() int { return f.headerSize }
