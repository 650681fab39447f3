/*
DESCRIPTION
  list.go lists the codec standards supported by the decode buffer layer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package codecutil provides codec standard names and helpers shared by the
// codec packages and the command line tools.
package codecutil

// Codec standards. When adding or removing a standard, IsValid and
// Decodable must be updated.
const (
	VP9   = "vp9"
	HEVC  = "hevc"
	JPEG  = "jpeg"
	MPEG2 = "mpeg2"
)

// IsValid returns true if s is a known codec standard.
func IsValid(s string) bool {
	switch s {
	case VP9, HEVC, JPEG, MPEG2:
		return true
	default:
		return false
	}
}

// Decodable returns true if s has a decode pipeline. HEVC support is limited
// to reference frame bookkeeping.
func Decodable(s string) bool {
	switch s {
	case VP9, JPEG, MPEG2:
		return true
	default:
		return false
	}
}
