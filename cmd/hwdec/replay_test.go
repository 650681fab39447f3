/*
DESCRIPTION
  replay_test.go provides testing for replay and the IVF lexer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package main

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/config"
	"github.com/ausocean/hwdec/resource"
)

// catenated returns the frame data a decode packet reads for frame delivered
// in segments of seg bytes.
func catenated(frame []byte, seg int) []byte {
	if seg == 0 || seg >= len(frame) {
		return frame
	}
	var out []byte
	for lo := 0; lo < len(frame); lo += seg {
		hi := lo + seg
		if hi > len(frame) {
			hi = len(frame)
		}
		out = append(out, make([]byte, resource.AlignCeil(len(out), resource.CacheLineSize)-len(out))...)
		out = append(out, frame[lo:hi]...)
	}
	return out
}

func newConfig(t *testing.T, codec string, seg uint) config.Config {
	cfg := config.Config{Logger: (*logging.TestLogger)(t), Codec: codec, SegmentSize: seg}
	cfg.Validate()
	return cfg
}

func TestReplayMPEG2(t *testing.T) {
	seq := []byte{0x00, 0x00, 0x01, 0xb3, 0x02, 0x00, 0x20, 0x13, 0xff, 0xff, 0xe0}
	pic := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x08, 0xff, 0xf8}
	slices := []byte{0x00, 0x00, 0x01, 0x01, 0x10, 0x20, 0x30, 0x00, 0x00, 0x01, 0x02, 0x40, 0x50}
	end := []byte{0x00, 0x00, 0x01, 0xb7}

	frame1 := bytes.Join([][]byte{seq, pic, slices}, nil)
	frame2 := bytes.Join([][]byte{pic, slices}, nil)
	stream := bytes.Join([][]byte{frame1, frame2, end}, nil)

	for _, seg := range []uint{0, 10} {
		var out bytes.Buffer
		n, err := replay(newConfig(t, codecutil.MPEG2, seg), bytes.NewReader(stream), &out)
		if err != nil {
			t.Fatalf("segment %d: did not expect error: %v", seg, err)
		}
		if n != 2 {
			t.Errorf("segment %d: decoded %d frames, want 2", seg, n)
		}
		want := append(catenated(frame1, int(seg)), catenated(frame2, int(seg))...)
		if !bytes.Equal(out.Bytes(), want) {
			t.Errorf("segment %d: unexpected output:\n got: %x\nwant: %x", seg, out.Bytes(), want)
		}
	}
}

func jpegSegment(code byte, body ...byte) []byte {
	n := len(body) + 2
	return append([]byte{0xff, code, byte(n >> 8), byte(n)}, body...)
}

func TestReplayJPEG(t *testing.T) {
	var img []byte
	img = append(img, 0xff, 0xd8)
	img = append(img, jpegSegment(0xdb, make([]byte, 65)...)...)
	img = append(img, jpegSegment(0xc0, 8, 0, 8, 0, 8, 1, 1, 0x11, 0)...)
	img = append(img, jpegSegment(0xda, 1, 1, 0, 0, 63, 0)...)
	img = append(img, 1, 2, 3, 0xff, 0x00, 4)
	img = append(img, jpegSegment(0xda, 1, 1, 0, 0, 63, 0)...)
	img = append(img, 5, 6, 7)
	data := img
	img = append(append([]byte{}, img...), 0xff, 0xd9)

	stream := append(append([]byte{}, img...), img...)
	for _, seg := range []uint{0, 100} {
		var out bytes.Buffer
		n, err := replay(newConfig(t, codecutil.JPEG, seg), bytes.NewReader(stream), &out)
		if err != nil {
			t.Fatalf("segment %d: did not expect error: %v", seg, err)
		}
		if n != 2 {
			t.Errorf("segment %d: decoded %d images, want 2", seg, n)
		}
		want := catenated(data, int(seg))
		want = append(append([]byte{}, want...), want...)
		if !bytes.Equal(out.Bytes(), want) {
			t.Errorf("segment %d: unexpected output:\n got: %x\nwant: %x", seg, out.Bytes(), want)
		}
	}
}

// ivf returns an IVF file holding frames with the given fourcc.
func ivf(fourcc string, frames ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteString("DKIF")
	binary.Write(&b, binary.LittleEndian, uint16(0))
	binary.Write(&b, binary.LittleEndian, uint16(32))
	b.WriteString(fourcc)
	binary.Write(&b, binary.LittleEndian, uint16(64))
	binary.Write(&b, binary.LittleEndian, uint16(48))
	binary.Write(&b, binary.LittleEndian, uint32(30))
	binary.Write(&b, binary.LittleEndian, uint32(1))
	binary.Write(&b, binary.LittleEndian, uint32(len(frames)))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	for i, f := range frames {
		binary.Write(&b, binary.LittleEndian, uint32(len(f)))
		binary.Write(&b, binary.LittleEndian, uint64(i))
		b.Write(f)
	}
	return b.Bytes()
}

// frames records each write as one frame.
type frames [][]byte

func (f *frames) Write(b []byte) (int, error) {
	*f = append(*f, append([]byte(nil), b...))
	return len(b), nil
}

func TestLexIVF(t *testing.T) {
	a := []byte{0x82, 0x49, 0x83, 0x42}
	b := []byte{0x86, 0x00, 0x40}
	super := append(append(append([]byte{}, a...), b...), 0xc1, 4, 3, 0xc1)
	plain := []byte{0x86, 0x01}

	var got frames
	err := lexIVF((*logging.TestLogger)(t), &got, bytes.NewReader(ivf(fourCCVP9, super, plain)))
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := frames{a, b, plain}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected frames:\n%s", cmp.Diff(want, got))
	}

	err = lexIVF((*logging.TestLogger)(t), &got, bytes.NewReader(ivf("VP80", plain)))
	if err == nil {
		t.Errorf("expected error for vp8 file")
	}
}
