/*
DESCRIPTION
  parse.go provides Parser, which locates the headers and slices of coded
  MPEG-2 pictures by their start codes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package mpeg2

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/bits"
	"github.com/ausocean/hwdec/status"
)

// Start codes.
const (
	codePicture   = 0x00
	codeSliceMin  = 0x01
	codeSliceMax  = 0xaf
	codeSequence  = 0xb3
	codeExtension = 0xb5
)

// Extension start code identifiers.
const (
	extSequence      = 1
	extPictureCoding = 8
)

var startCodePrefix = []byte{0x00, 0x00, 0x01}

// Parser parses coded MPEG-2 pictures. The most recent sequence header is
// kept so that pictures following it in later calls can be sized.
type Parser struct {
	width  int
	height int
}

// NewParser returns a new Parser.
func NewParser() *Parser { return &Parser{} }

// Parse parses the single coded picture held by pic, which may be preceded by
// sequence and group of pictures headers. Slice offsets are relative to the
// start of pic.
func (p *Parser) Parse(pic []byte) (*PicParams, *SliceParams, error) {
	codes := startCodes(pic)
	if len(codes) == 0 {
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "no start codes")
	}

	pp := &PicParams{PictureStructure: FramePic}
	slices := &SliceParams{}
	var sawPicture bool
	for i, off := range codes {
		end := len(pic)
		if i+1 < len(codes) {
			end = codes[i+1]
		}
		code := pic[off+3]
		payload := pic[off+4 : end]

		var err error
		switch {
		case code == codeSequence:
			err = p.sequenceHeader(payload)
		case code == codeExtension:
			err = p.extension(payload, pp)
		case code == codePicture:
			if sawPicture {
				return nil, nil, errors.Wrap(status.ErrInvalidParameter, "more than one picture")
			}
			sawPicture = true
			err = pictureHeader(payload, pp)
		case code >= codeSliceMin && code <= codeSliceMax:
			if !sawPicture {
				return nil, nil, errors.Wrap(status.ErrInvalidParameter, "slice before picture header")
			}
			slices.Slices = append(slices.Slices, SliceHeader{Row: int(code) - 1, DataOffset: off, DataLength: end - off})
		}
		if err != nil {
			return nil, nil, errors.Wrapf(status.ErrInvalidParameter, "bad header 0x%02x at %d: %v", code, off, err)
		}
	}

	switch {
	case p.width == 0 || p.height == 0:
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "no sequence header")
	case !sawPicture:
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "no picture header")
	case len(slices.Slices) == 0:
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "picture has no slices")
	}
	pp.Width, pp.Height = p.width, p.height
	last := slices.Slices[len(slices.Slices)-1]
	pp.BitstreamSize = last.DataOffset + last.DataLength
	return pp, slices, nil
}

// startCodes returns the offsets of every start code prefix in b that is
// followed by a start code value.
func startCodes(b []byte) []int {
	var offs []int
	for off := 0; ; {
		i := bytes.Index(b[off:], startCodePrefix)
		if i == -1 || off+i+3 >= len(b) {
			return offs
		}
		offs = append(offs, off+i)
		off += i + 3
	}
}

func (p *Parser) sequenceHeader(b []byte) error {
	br := bits.NewBitReader(bytes.NewReader(b))
	w, err := br.ReadBits(12)
	if err != nil {
		return err
	}
	h, err := br.ReadBits(12)
	if err != nil {
		return err
	}
	if w == 0 || h == 0 {
		return errors.Errorf("bad size %dx%d", w, h)
	}
	p.width, p.height = int(w), int(h)
	return nil
}

func (p *Parser) extension(b []byte, pp *PicParams) error {
	br := bits.NewBitReader(bytes.NewReader(b))
	id, err := br.ReadBits(4)
	if err != nil {
		return err
	}
	switch id {
	case extSequence:
		// Profile and level, progressive sequence and chroma format.
		_, err = br.ReadBits(11)
		if err != nil {
			return err
		}
		hx, err := br.ReadBits(2)
		if err != nil {
			return err
		}
		vx, err := br.ReadBits(2)
		if err != nil {
			return err
		}
		p.width |= int(hx) << 12
		p.height |= int(vx) << 12
	case extPictureCoding:
		// Motion vector f codes and intra DC precision.
		_, err = br.ReadBits(18)
		if err != nil {
			return err
		}
		s, err := br.ReadBits(2)
		if err != nil {
			return err
		}
		if s == 0 {
			return errors.New("reserved picture structure")
		}
		pp.PictureStructure = int(s)
	}
	return nil
}

func pictureHeader(b []byte, pp *PicParams) error {
	br := bits.NewBitReader(bytes.NewReader(b))
	_, err := br.ReadBits(10) // Temporal reference.
	if err != nil {
		return err
	}
	t, err := br.ReadBits(3)
	if err != nil {
		return err
	}
	if t == 0 || t > 4 {
		return errors.Errorf("bad picture coding type %d", t)
	}
	pp.PictureCodingType = int(t)
	return nil
}
