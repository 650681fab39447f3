/*
DESCRIPTION
  parse.go provides Parse, which locates the frame header and scans of a
  JPEG image.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package jpeg

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/status"
)

// JPEG marker codes.
const (
	codeSOF0 = 0xc0 // Baseline.
	codeSOF1 = 0xc1 // Extended sequential.
	codeSOF2 = 0xc2 // Progressive.
	codeDHT  = 0xc4 // Define huffman tables.
	codeRST0 = 0xd0 // First restart marker.
	codeRST7 = 0xd7 // Last restart marker.
	codeSOI  = 0xd8 // Start of image.
	codeEOI  = 0xd9 // End of image.
	codeSOS  = 0xda // Start of scan.
	codeDQT  = 0xdb // Define quantization tables.
	codeDRI  = 0xdd // Define restart interval.
)

// parser holds the state of one Parse call.
type parser struct {
	s   *codecutil.ByteScanner
	pic *PicParams
	dri int
	err error
}

func (p *parser) read8() int {
	if p.err != nil {
		return 0
	}
	var b byte
	b, p.err = p.s.ReadByte()
	return int(b)
}

func (p *parser) read16() int {
	return p.read8()<<8 | p.read8()
}

func (p *parser) skip(n int) {
	if p.err != nil || n <= 0 {
		return
	}
	p.err = p.s.Skip(n)
}

// Parse parses the markers of the JPEG image held by img, returning its
// picture parameters and every scan.
func Parse(img []byte) (*PicParams, *ScanParams, error) {
	p := &parser{
		s:   codecutil.NewByteScanner(bytes.NewReader(img), make([]byte, 4<<10)),
		pic: &PicParams{},
	}
	if p.read8() != 0xff || p.read8() != codeSOI {
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "missing start of image")
	}

	scans := &ScanParams{}
	code := p.marker()
	for p.err == nil && code != codeEOI {
		switch code {
		case codeSOF0, codeSOF1, codeSOF2:
			p.frameHeader(code)
		case codeDRI:
			p.read16()
			p.dri = p.read16()
		case codeSOS:
			var sh ScanHeader
			sh, code = p.scan()
			scans.Scans = append(scans.Scans, sh)
			continue
		default:
			p.skip(p.read16() - 2)
		}
		code = p.marker()
	}
	if p.err != nil {
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "truncated image: "+p.err.Error())
	}
	if p.pic.NumComponents == 0 {
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "missing start of frame")
	}
	if len(scans.Scans) == 0 {
		return nil, nil, errors.Wrap(status.ErrInvalidParameter, "image has no scans")
	}
	p.pic.TotalScans = len(scans.Scans)
	return p.pic, scans, nil
}

// marker reads up to and including the next marker code.
func (p *parser) marker() int {
	if p.err != nil {
		return 0
	}
	_, _, p.err = p.s.ScanUntil(nil, 0xff)
	code := p.read8()
	for code == 0xff {
		code = p.read8()
	}
	return code
}

func (p *parser) frameHeader(code int) {
	n := p.read16()
	p.read8() // Precision.
	p.pic.Height = p.read16()
	p.pic.Width = p.read16()
	p.pic.NumComponents = p.read8()
	p.pic.Progressive = code == codeSOF2
	p.skip(n - 8)
	if p.err == nil && (p.pic.NumComponents == 0 || p.pic.NumComponents > maxComponents) {
		p.err = errors.Errorf("bad component count %d", p.pic.NumComponents)
	}
}

// scan reads a scan header and its entropy coded data, returning the scan and
// the code of the marker that ends it.
func (p *parser) scan() (ScanHeader, int) {
	n := p.read16()
	sh := ScanHeader{NumComponents: p.read8(), RestartInterval: p.dri}
	p.skip(n - 3)
	sh.DataOffset = p.s.Pos()
	for p.err == nil {
		_, _, p.err = p.s.ScanUntil(nil, 0xff)
		code := p.read8()
		for code == 0xff {
			code = p.read8()
		}
		if code == 0x00 || (code >= codeRST0 && code <= codeRST7) {
			continue
		}
		sh.DataLength = p.s.Pos() - 2 - sh.DataOffset
		return sh, code
	}
	return sh, 0
}
