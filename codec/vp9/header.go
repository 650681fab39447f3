/*
DESCRIPTION
  header.go provides HeaderParser, which parses the VP9 uncompressed frame
  header into PicParams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package vp9

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/codec/bits"
	"github.com/ausocean/hwdec/codec/vp9/prob"
	"github.com/ausocean/hwdec/status"
)

// Syntax constants.
const (
	frameMarker     = 2
	syncCode        = 0x498342
	csRGB           = 7
	maxTileWidthB64 = 64
	minTileWidthB64 = 4
	maxSegments     = 8
	segLvlMax       = 4
)

var (
	segFeatureBits   = [segLvlMax]int{8, 6, 2, 0}
	segFeatureSigned = [segLvlMax]bool{true, true, false, false}

	// literalToFilter maps raw_interpolation_filter to an interpolation filter.
	literalToFilter = [4]int{FilterEightTapSmooth, FilterEightTap, FilterEightTapSharp, FilterBilinear}
)

// fieldReader reads fields from a bits.BitReader with a sticky error that
// may be checked after a series of reads.
type fieldReader struct {
	e  error
	br *bits.BitReader
}

func (r *fieldReader) readBits(n int) int {
	if r.e != nil {
		return 0
	}
	var b uint64
	b, r.e = r.br.ReadBits(n)
	return int(b)
}

func (r *fieldReader) readFlag() bool {
	return r.readBits(1) == 1
}

// readSigned reads an su(n) field.
func (r *fieldReader) readSigned(n int) int {
	if r.e != nil {
		return 0
	}
	var v int
	v, r.e = r.br.ReadSigned(n)
	return v
}

// readProb reads a probability that defaults to 255 when not coded.
func (r *fieldReader) readProb() uint8 {
	if r.readFlag() {
		return uint8(r.readBits(8))
	}
	return 255
}

func (r *fieldReader) err() error {
	return r.e
}

type frameSize struct {
	width, height int
}

// HeaderParser parses uncompressed frame headers. It holds the frame sizes
// of the reference slots, which later frames may inherit.
type HeaderParser struct {
	refs [NumRefFrames]frameSize
}

// NewHeaderParser returns a new HeaderParser.
func NewHeaderParser() *HeaderParser {
	return &HeaderParser{}
}

// Parse parses the uncompressed header at the start of frame. The reference
// slots named by the frame's refresh flags take the frame's size.
func (h *HeaderParser) Parse(frame []byte) (*PicParams, error) {
	br := bits.NewBitReader(bytes.NewReader(frame))
	r := &fieldReader{br: br}
	p := &PicParams{BitstreamSize: len(frame)}

	if r.readBits(2) != frameMarker {
		return nil, errors.Wrap(status.ErrInvalidParameter, "invalid frame marker")
	}
	low := r.readBits(1)
	high := r.readBits(1)
	p.Profile = high<<1 | low
	if p.Profile == 3 && r.readFlag() {
		return nil, errors.Wrap(status.ErrInvalidParameter, "reserved bit set")
	}

	p.ShowExistingFrame = r.readFlag()
	if p.ShowExistingFrame {
		p.FrameToShow = r.readBits(3)
		return p, errors.Wrap(r.err(), "could not parse show existing frame")
	}

	p.FrameType = r.readBits(1)
	p.ShowFrame = r.readFlag()
	p.ErrorResilientMode = r.readFlag()

	var err error
	if p.IsKey() {
		err = h.syncCode(r)
		if err != nil {
			return nil, err
		}
		err = colorConfig(r, p)
		if err != nil {
			return nil, err
		}
		readFrameSize(r, p)
		readRenderSize(r, p)
		p.RefreshFrameFlags = 0xff
	} else {
		if !p.ShowFrame {
			p.IntraOnly = r.readFlag()
		}
		if !p.ErrorResilientMode {
			p.ResetFrameContext = r.readBits(2)
		}
		if p.IntraOnly {
			err = h.syncCode(r)
			if err != nil {
				return nil, err
			}
			if p.Profile > 0 {
				err = colorConfig(r, p)
				if err != nil {
					return nil, err
				}
			} else {
				p.BitDepth = 8
				p.SubsamplingX, p.SubsamplingY = true, true
			}
			p.RefreshFrameFlags = uint8(r.readBits(8))
			readFrameSize(r, p)
			readRenderSize(r, p)
		} else {
			p.RefreshFrameFlags = uint8(r.readBits(8))
			for i := range p.RefFrameIdx {
				p.RefFrameIdx[i] = r.readBits(3)
				p.RefFrameSignBias[i] = r.readFlag()
			}
			err = h.frameSizeWithRefs(r, p)
			if err != nil {
				return nil, err
			}
			p.AllowHighPrecisionMV = r.readFlag()
			if r.readFlag() {
				p.InterpFilter = FilterSwitchable
			} else {
				p.InterpFilter = literalToFilter[r.readBits(2)]
			}
		}
	}

	if !p.ErrorResilientMode {
		p.RefreshFrameContext = r.readFlag()
		p.FrameParallelDecodingMode = r.readFlag()
	} else {
		p.FrameParallelDecodingMode = true
	}
	p.FrameContextIdx = r.readBits(2)

	readLoopFilter(r, p)
	readQuantization(r, p)
	readSegmentation(r, p)
	readTileInfo(r, p)
	p.CompressedHeaderSize = r.readBits(16)
	if r.err() != nil {
		return nil, errors.Wrap(r.err(), "could not parse uncompressed header")
	}
	p.UncompressedHeaderSize = br.BytesRead()

	for i := range h.refs {
		if p.RefreshFrameFlags&(1<<uint(i)) != 0 {
			h.refs[i] = frameSize{p.FrameWidth, p.FrameHeight}
		}
	}
	return p, nil
}

func (h *HeaderParser) syncCode(r *fieldReader) error {
	if r.readBits(24) != syncCode {
		if r.err() != nil {
			return errors.Wrap(r.err(), "could not read sync code")
		}
		return errors.Wrap(status.ErrInvalidParameter, "invalid frame sync code")
	}
	return nil
}

func (h *HeaderParser) frameSizeWithRefs(r *fieldReader, p *PicParams) error {
	found := false
	for i := 0; i < len(p.RefFrameIdx); i++ {
		if r.readFlag() {
			ref := h.refs[p.RefFrameIdx[i]]
			if ref.width == 0 || ref.height == 0 {
				return errors.Wrapf(status.ErrInvalidParameter, "frame size taken from empty reference slot %d", p.RefFrameIdx[i])
			}
			p.FrameWidth, p.FrameHeight = ref.width, ref.height
			found = true
			break
		}
	}
	if !found {
		readFrameSize(r, p)
	}
	readRenderSize(r, p)
	return nil
}

func colorConfig(r *fieldReader, p *PicParams) error {
	p.BitDepth = 8
	if p.Profile >= 2 {
		p.BitDepth = 10
		if r.readFlag() {
			p.BitDepth = 12
		}
	}
	p.ColorSpace = r.readBits(3)
	odd := p.Profile == 1 || p.Profile == 3
	if p.ColorSpace != csRGB {
		p.ColorRange = r.readFlag()
		if odd {
			p.SubsamplingX = r.readFlag()
			p.SubsamplingY = r.readFlag()
			if r.readFlag() {
				return errors.Wrap(status.ErrInvalidParameter, "reserved bit set")
			}
		} else {
			p.SubsamplingX, p.SubsamplingY = true, true
		}
		return nil
	}
	p.ColorRange = true
	if !odd {
		return errors.Wrapf(status.ErrInvalidParameter, "rgb not supported in profile %d", p.Profile)
	}
	if r.readFlag() {
		return errors.Wrap(status.ErrInvalidParameter, "reserved bit set")
	}
	return nil
}

func readFrameSize(r *fieldReader, p *PicParams) {
	p.FrameWidth = r.readBits(16) + 1
	p.FrameHeight = r.readBits(16) + 1
}

func readRenderSize(r *fieldReader, p *PicParams) {
	p.RenderWidth, p.RenderHeight = p.FrameWidth, p.FrameHeight
	if r.readFlag() {
		p.RenderWidth = r.readBits(16) + 1
		p.RenderHeight = r.readBits(16) + 1
	}
}

func readLoopFilter(r *fieldReader, p *PicParams) {
	p.FilterLevel = r.readBits(6)
	p.SharpnessLevel = r.readBits(3)
	p.ModeRefDeltaOn = r.readFlag()
	if !p.ModeRefDeltaOn || !r.readFlag() {
		return
	}
	for i := range p.RefDeltas {
		if r.readFlag() {
			p.RefDeltas[i] = r.readSigned(6)
		}
	}
	for i := range p.ModeDeltas {
		if r.readFlag() {
			p.ModeDeltas[i] = r.readSigned(6)
		}
	}
}

func readDeltaQ(r *fieldReader) int {
	if r.readFlag() {
		return r.readSigned(4)
	}
	return 0
}

func readQuantization(r *fieldReader, p *PicParams) {
	p.BaseQIdx = r.readBits(8)
	p.DeltaQYDC = readDeltaQ(r)
	p.DeltaQUVDC = readDeltaQ(r)
	p.DeltaQUVAC = readDeltaQ(r)
	p.Lossless = p.BaseQIdx == 0 && p.DeltaQYDC == 0 && p.DeltaQUVDC == 0 && p.DeltaQUVAC == 0
}

func readSegmentation(r *fieldReader, p *PicParams) {
	for i := range p.SegTreeProbs {
		p.SegTreeProbs[i] = 255
	}
	for i := range p.SegPredProbs {
		p.SegPredProbs[i] = 255
	}
	p.SegmentationEnabled = r.readFlag()
	if !p.SegmentationEnabled {
		return
	}
	p.SegmentationUpdateMap = r.readFlag()
	if p.SegmentationUpdateMap {
		for i := 0; i < prob.SegTreeProbs; i++ {
			p.SegTreeProbs[i] = r.readProb()
		}
		p.SegmentationTemporalUpdate = r.readFlag()
		if p.SegmentationTemporalUpdate {
			for i := 0; i < prob.SegPredProbs; i++ {
				p.SegPredProbs[i] = r.readProb()
			}
		}
	}
	p.SegmentationUpdateData = r.readFlag()
	if !p.SegmentationUpdateData {
		return
	}
	r.readFlag() // segmentation_abs_or_delta_update
	for i := 0; i < maxSegments; i++ {
		for j := 0; j < segLvlMax; j++ {
			if !r.readFlag() {
				continue
			}
			r.readBits(segFeatureBits[j])
			if segFeatureSigned[j] {
				r.readFlag()
			}
		}
	}
}

func readTileInfo(r *fieldReader, p *PicParams) {
	sb64Cols := (((p.FrameWidth + 7) >> 3) + 7) >> 3
	minLog2 := 0
	for (maxTileWidthB64 << uint(minLog2)) < sb64Cols {
		minLog2++
	}
	maxLog2 := 1
	for (sb64Cols >> uint(maxLog2)) >= minTileWidthB64 {
		maxLog2++
	}
	maxLog2--

	p.TileColsLog2 = minLog2
	for p.TileColsLog2 < maxLog2 && r.readFlag() {
		p.TileColsLog2++
	}
	p.TileRowsLog2 = r.readBits(1)
	if p.TileRowsLog2 == 1 {
		p.TileRowsLog2 += r.readBits(1)
	}
}
