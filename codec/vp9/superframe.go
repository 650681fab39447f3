/*
DESCRIPTION
  superframe.go provides SplitSuperframe, which splits a VP9 superframe into
  its frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package vp9

import (
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// SplitSuperframe returns the frames of the superframe b. If b has no
// superframe index it is returned as the only frame. The returned frames
// share b's memory.
func SplitSuperframe(b []byte) ([][]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	marker := b[len(b)-1]
	if marker&0xe0 != 0xc0 {
		return [][]byte{b}, nil
	}
	n := int(marker&0x7) + 1
	mag := int(marker>>3&0x3) + 1
	size := 2 + mag*n
	if len(b) < size || b[len(b)-size] != marker {
		return [][]byte{b}, nil
	}

	index := b[len(b)-size+1 : len(b)-1]
	data := b[:len(b)-size]
	frames := make([][]byte, 0, n)
	var off int
	for i := 0; i < n; i++ {
		var l int
		for j := 0; j < mag; j++ {
			l |= int(index[i*mag+j]) << (8 * j)
		}
		if off+l > len(data) {
			return nil, errors.Wrapf(status.ErrInvalidParameter, "superframe frame %d of %d bytes overruns %d byte superframe", i, l, len(data))
		}
		if l != 0 {
			frames = append(frames, data[off:off+l])
		}
		off += l
	}
	return frames, nil
}
