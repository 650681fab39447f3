/*
DESCRIPTION
  feature.go provides Feature, the MPEG-2 decode feature, which tracks the
  slices of a picture and the macroblock rows they cover.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package mpeg2 provides the MPEG-2 decode feature and a start code parser
// for coded pictures.
package mpeg2

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/status"
)

// Feature is the basic feature of an MPEG-2 session.
type Feature struct {
	decode.BasicFeature

	log logging.Logger

	Pic       *PicParams
	NumSlices int

	rows    []bool // Macroblock rows started by a received slice.
	covered int
}

// NewFeature returns a new Feature.
func NewFeature(log logging.Logger) (*Feature, error) {
	if log == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "mpeg2 feature needs logger")
	}
	return &Feature{BasicFeature: decode.BasicFeature{Codec: codecutil.MPEG2}, log: log}, nil
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
			return errors.Wrapf(status.ErrInvalidParameter, "mpeg2 feature needs *mpeg2.PicParams, got %T", p.Decode.PicParams)
		}
		if pic.Width <= 0 || pic.Height <= 0 || pic.BitstreamSize < 0 {
			return errors.Wrapf(status.ErrInvalidParameter, "bad picture %dx%d of %d bytes", pic.Width, pic.Height, pic.BitstreamSize)
		}
		f.Pic = pic
		f.RequiredSize = pic.BitstreamSize
		if f.RequiredSize == 0 {
			f.RequiredSize = p.Decode.DataSize
		}
		f.rows = make([]bool, pic.MBRows())
		f.covered = 0
		f.NumSlices = 0
	}

	if p.Decode.SliceParams == nil {
		return nil
	}
	slices, ok := p.Decode.SliceParams.(*SliceParams)
	if !ok {
		return errors.Wrapf(status.ErrInvalidParameter, "mpeg2 feature needs *mpeg2.SliceParams, got %T", p.Decode.SliceParams)
	}
	if slices == nil {
		return nil
	}
	for _, s := range slices.Slices {
		if s.Row < 0 || s.Row >= len(f.rows) || s.DataOffset < 0 || s.DataLength <= 0 || s.DataOffset+s.DataLength > f.RequiredSize {
			f.SlicesInvalid = true
			return errors.Wrapf(status.ErrInvalidParameter, "bad slice at row %d offset %d length %d", s.Row, s.DataOffset, s.DataLength)
		}
		f.NumSlices++
		if !f.rows[s.Row] {
			f.rows[s.Row] = true
			f.covered++
		}
	}
	f.log.Debug("mpeg2 slices updated", "slices", f.NumSlices, "rows", f.covered, "of", len(f.rows))
	return nil
}

// SlicesCoverPicture returns true once every macroblock row of the picture
// has been started by a received slice.
func (f *Feature) SlicesCoverPicture() bool {
	return len(f.rows) != 0 && f.covered == len(f.rows)
}
