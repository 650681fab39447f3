/*
DESCRIPTION
  header_test.go provides testing for HeaderParser.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package vp9

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/hwdec/status"
)

// bitWriter writes bits MSB first.
type bitWriter struct {
	buf []byte
	n   int
}

func (w *bitWriter) put(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.n%8)
		}
		w.n++
	}
}

func (w *bitWriter) flag(b bool) {
	if b {
		w.put(1, 1)
		return
	}
	w.put(0, 1)
}

// tail writes loop filter, quantisation, segmentation disabled, tile info
// and compressed header size fields for a frame narrower than 256 pixels.
func (w *bitWriter) tail(ctx int) {
	w.put(1, 1)          // refresh_frame_context
	w.put(0, 1)          // frame_parallel_decoding_mode
	w.put(uint64(ctx), 2) // frame_context_idx
	w.put(10, 6)         // loop_filter_level
	w.put(2, 3)          // loop_filter_sharpness
	w.put(1, 1)          // loop_filter_delta_enabled
	w.put(1, 1)          // loop_filter_delta_update
	w.put(1, 1)          // update_ref_delta[0]
	w.put(1, 6)          // 1
	w.put(0, 1)          // sign
	w.put(0, 1)          // update_ref_delta[1]
	w.put(1, 1)          // update_ref_delta[2]
	w.put(1, 6)          // -1
	w.put(1, 1)          // sign
	w.put(0, 3)          // update_ref_delta[3], update_mode_delta[0..1]
	w.put(60, 8)         // base_q_idx
	w.put(0, 3)          // delta_coded x3
}

func keyFrame(width, height, ctx int) ([]byte, int) {
	w := &bitWriter{}
	w.put(2, 2)        // frame_marker
	w.put(0, 2)        // profile
	w.put(0, 1)        // show_existing_frame
	w.put(KeyFrame, 1) // frame_type
	w.put(1, 1)        // show_frame
	w.put(0, 1)        // error_resilient_mode
	w.put(syncCode, 24)
	w.put(1, 3) // color_space
	w.put(0, 1) // color_range
	w.put(uint64(width-1), 16)
	w.put(uint64(height-1), 16)
	w.put(0, 1) // render_and_frame_size_different
	w.tail(ctx)
	w.put(0, 1)   // segmentation_enabled
	w.put(0, 1)   // tile_rows_log2
	w.put(100, 16) // header_size_in_bytes
	n := (w.n + 7) / 8
	return append(w.buf, make([]byte, 32)...), n
}

func interFrame(ctx int) ([]byte, int) {
	w := &bitWriter{}
	w.put(2, 2)
	w.put(0, 2)
	w.put(0, 1)
	w.put(NonKeyFrame, 1)
	w.put(1, 1) // show_frame
	w.put(0, 1) // error_resilient_mode
	w.put(0, 2) // reset_frame_context
	w.put(0x01, 8)
	for i := 0; i < 3; i++ {
		w.put(uint64(i), 3) // ref_frame_idx
		w.put(0, 1)         // sign bias
	}
	w.put(1, 1) // found_ref
	w.put(0, 1) // render_and_frame_size_different
	w.put(1, 1) // allow_high_precision_mv
	w.put(0, 1) // is_filter_switchable
	w.put(2, 2) // raw_interpolation_filter
	w.tail(ctx)
	w.put(1, 1) // segmentation_enabled
	w.put(1, 1) // segmentation_update_map
	for i := 0; i < 7; i++ {
		if i == 3 {
			w.put(0, 1)
			continue
		}
		w.put(1, 1)
		w.put(uint64(i*10+1), 8)
	}
	w.put(1, 1) // segmentation_temporal_update
	w.put(1, 1)
	w.put(200, 8)
	w.put(0, 1)
	w.put(0, 1)
	w.put(1, 1) // segmentation_update_data
	w.put(0, 1) // abs_or_delta
	for i := 0; i < maxSegments; i++ {
		for j := 0; j < segLvlMax; j++ {
			if i == 1 && j == 0 {
				w.put(1, 1)
				w.put(20, 8)
				w.put(1, 1)
				continue
			}
			w.put(0, 1)
		}
	}
	w.put(0, 1)
	w.put(50, 16)
	n := (w.n + 7) / 8
	return append(w.buf, make([]byte, 16)...), n
}

func TestParseKeyFrame(t *testing.T) {
	frame, hdr := keyFrame(352, 288, 2)
	p, err := NewHeaderParser().Parse(frame)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := &PicParams{
		FrameType:              KeyFrame,
		ShowFrame:              true,
		BitDepth:               8,
		ColorSpace:             1,
		SubsamplingX:           true,
		SubsamplingY:           true,
		FrameWidth:             352,
		FrameHeight:            288,
		RenderWidth:            352,
		RenderHeight:           288,
		RefreshFrameFlags:      0xff,
		RefreshFrameContext:    true,
		FrameContextIdx:        2,
		FilterLevel:            10,
		SharpnessLevel:         2,
		ModeRefDeltaOn:         true,
		RefDeltas:              [4]int{1, 0, -1, 0},
		BaseQIdx:               60,
		SegTreeProbs:           defaultSegTree(),
		SegPredProbs:           defaultSegPred(),
		UncompressedHeaderSize: hdr,
		CompressedHeaderSize:   100,
		BitstreamSize:          len(frame),
	}
	if !cmp.Equal(p, want) {
		t.Errorf("unexpected params:\n%s", cmp.Diff(want, p))
	}
}

func TestParseInterFrame(t *testing.T) {
	h := NewHeaderParser()
	key, _ := keyFrame(200, 100, 0)
	if _, err := h.Parse(key); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	frame, hdr := interFrame(1)
	p, err := h.Parse(frame)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if p.FrameWidth != 200 || p.FrameHeight != 100 {
		t.Errorf("size not taken from reference: %dx%d", p.FrameWidth, p.FrameHeight)
	}
	if p.InterpFilter != FilterEightTapSharp {
		t.Errorf("unexpected interpolation filter: %d", p.InterpFilter)
	}
	if !p.AllowHighPrecisionMV || p.FrameContextIdx != 1 || p.RefreshFrameFlags != 0x01 {
		t.Errorf("unexpected inter fields: %+v", p)
	}
	wantTree := [7]uint8{1, 11, 21, 255, 41, 51, 61}
	if p.SegTreeProbs != wantTree {
		t.Errorf("unexpected tree probs: got %v, want %v", p.SegTreeProbs, wantTree)
	}
	wantPred := [3]uint8{200, 255, 255}
	if p.SegPredProbs != wantPred {
		t.Errorf("unexpected pred probs: got %v, want %v", p.SegPredProbs, wantPred)
	}
	if !p.SegmentationEnabled || !p.SegmentationUpdateMap || !p.SegmentationTemporalUpdate || !p.SegmentationUpdateData {
		t.Errorf("unexpected segmentation flags: %+v", p)
	}
	if p.UncompressedHeaderSize != hdr || p.CompressedHeaderSize != 50 {
		t.Errorf("unexpected header sizes: %d, %d", p.UncompressedHeaderSize, p.CompressedHeaderSize)
	}
}

func TestParseErrors(t *testing.T) {
	key, _ := keyFrame(64, 64, 0)
	badMarker := append([]byte{}, key...)
	badMarker[0] &^= 0x80
	badSync := append([]byte{}, key...)
	badSync[1] ^= 0x01

	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{name: "marker", frame: badMarker, want: status.ErrInvalidParameter},
		{name: "sync", frame: badSync, want: status.ErrInvalidParameter},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewHeaderParser().Parse(test.frame)
			if !status.Is(err, test.want) {
				t.Errorf("expected %v, got: %v", test.want, err)
			}
		})
	}

	// An inter frame cannot take its size from an empty slot.
	frame, _ := interFrame(0)
	if _, err := NewHeaderParser().Parse(frame); !status.Is(err, status.ErrInvalidParameter) {
		t.Errorf("expected invalid parameter for empty reference slot, got: %v", err)
	}

	if _, err := NewHeaderParser().Parse(key[:3]); err == nil {
		t.Errorf("expected error for truncated header")
	}
}
