/*
DESCRIPTION
  params.go provides the HEVC picture and slice parameters consumed by
  RefFrames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package hevc

const (
	// MaxRefFrames is the number of entries in a picture's reference frame
	// list.
	MaxRefFrames = 15

	// NumFrameStores is the number of hardware frame stores references are
	// mapped onto.
	NumFrameStores = 8

	// NumSurfaces is the number of reconstructed surfaces a session may
	// address by FrameIdx.
	NumSurfaces = 128
)

// Picture coding types.
const (
	IType = 1
	PType = 2
	BType = 3
)

// Slice types.
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)

// PicFlags qualify a Picture.
type PicFlags uint8

// Picture flags.
const (
	FlagInvalid PicFlags = 1 << iota
	FlagLongTerm
)

// Picture identifies a surface. In a picture's reference frame list FrameIdx
// is the surface index. In a slice's reference picture lists it is an index
// into the picture's reference frame list.
type Picture struct {
	FrameIdx int
	Flags    PicFlags
}

// Valid returns true if p refers to a surface.
func (p Picture) Valid() bool {
	return p.Flags&FlagInvalid == 0 && p.FrameIdx >= 0 && p.FrameIdx < NumSurfaces
}

// PicParams holds the picture level parameters of one HEVC picture. Unused
// RefFrameList slots must carry FlagInvalid; a zero Picture refers to
// surface 0. Use NewPicParams to start from an empty list.
type PicParams struct {
	CurrPic      Picture
	CurrPOC      int
	RefFrameList [MaxRefFrames]Picture
	RefPOC       [MaxRefFrames]int
	CodingType   int
	TMVPEnabled  bool
}

// SliceParams holds the parameters of one slice of an HEVC picture.
type SliceParams struct {
	Type             int
	NumRefIdxActive  [2]int
	RefPicList       [2][MaxRefFrames]Picture
	CollocatedFromL0 bool
	CollocatedRefIdx int
}

// NewPicParams returns picture params for the current picture curr at poc,
// with every reference frame list slot invalid.
func NewPicParams(curr Picture, poc int) *PicParams {
	pic := &PicParams{CurrPic: curr, CurrPOC: poc}
	for i := range pic.RefFrameList {
		pic.RefFrameList[i] = Picture{Flags: FlagInvalid}
	}
	return pic
}
