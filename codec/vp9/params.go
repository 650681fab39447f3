/*
DESCRIPTION
  params.go provides PicParams, the VP9 picture parameters of one frame.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package vp9

import "github.com/ausocean/hwdec/codec/vp9/prob"

// Frame types.
const (
	KeyFrame    = 0
	NonKeyFrame = 1
)

// Values of ResetFrameContext.
const (
	ResetNone     = 0
	ResetNoneAlt  = 1
	ResetCurrent  = 2
	ResetAllCtxts = 3
)

// Interpolation filters.
const (
	FilterEightTap       = 0
	FilterEightTapSmooth = 1
	FilterEightTapSharp  = 2
	FilterBilinear       = 3
	FilterSwitchable     = 4
)

// Number of reference frame slots.
const NumRefFrames = 8

// PicParams holds the picture level syntax of one VP9 frame.
type PicParams struct {
	Profile           int
	ShowExistingFrame bool
	FrameToShow       int

	FrameType          int
	ShowFrame          bool
	ErrorResilientMode bool
	IntraOnly          bool
	ResetFrameContext  int

	BitDepth     int
	ColorSpace   int
	ColorRange   bool
	SubsamplingX bool
	SubsamplingY bool

	FrameWidth   int
	FrameHeight  int
	RenderWidth  int
	RenderHeight int

	RefreshFrameFlags    uint8
	RefFrameIdx          [3]int
	RefFrameSignBias     [3]bool
	AllowHighPrecisionMV bool
	InterpFilter         int

	RefreshFrameContext       bool
	FrameParallelDecodingMode bool
	FrameContextIdx           int // As coded.

	FilterLevel    int
	SharpnessLevel int
	ModeRefDeltaOn bool
	RefDeltas      [4]int
	ModeDeltas     [2]int
	BaseQIdx       int
	DeltaQYDC      int
	DeltaQUVDC     int
	DeltaQUVAC     int
	Lossless       bool
	TileColsLog2   int
	TileRowsLog2   int

	SegmentationEnabled        bool
	SegmentationUpdateMap      bool
	SegmentationTemporalUpdate bool
	SegmentationUpdateData     bool
	SegTreeProbs               [prob.SegTreeProbs]uint8
	SegPredProbs               [prob.SegPredProbs]uint8

	// Sizes in bytes of the uncompressed and compressed headers.
	UncompressedHeaderSize int
	CompressedHeaderSize   int

	// BitstreamSize is the declared size of the coded frame in bytes. Zero
	// means the frame is delivered in a single execute call.
	BitstreamSize int
}

// IsKey returns true for key frames.
func (p *PicParams) IsKey() bool { return p.FrameType == KeyFrame }

// IsIntra returns true for key frames and intra only frames.
func (p *PicParams) IsIntra() bool { return p.IsKey() || p.IntraOnly }

// Superblocks returns the number of 64x64 superblocks covering the frame.
func (p *PicParams) Superblocks() int {
	return ((p.FrameWidth + 63) / 64) * ((p.FrameHeight + 63) / 64)
}
