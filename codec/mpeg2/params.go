/*
DESCRIPTION
  params.go provides the MPEG-2 picture and slice parameters passed with
  execute calls.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package mpeg2

// Picture structures.
const (
	TopField    = 1
	BottomField = 2
	FramePic    = 3
)

// PicParams holds the picture level parameters of one coded MPEG-2 picture.
type PicParams struct {
	Width             int
	Height            int
	PictureStructure  int
	PictureCodingType int

	// BitstreamSize is the number of bytes from the start of the picture's
	// data to the end of its last slice.
	BitstreamSize int
}

// MBRows returns the number of macroblock rows in the picture. A field
// picture holds half the rows of the frame.
func (p *PicParams) MBRows() int {
	if p.PictureStructure == TopField || p.PictureStructure == BottomField {
		return (p.Height + 31) / 32
	}
	return (p.Height + 15) / 16
}

// SliceHeader describes one slice. Row is the macroblock row the slice
// starts, and DataOffset is relative to the start of the picture's data.
type SliceHeader struct {
	Row        int
	DataOffset int
	DataLength int
}

// SliceParams holds the slices delivered with one execute call.
type SliceParams struct {
	Slices []SliceHeader
}
