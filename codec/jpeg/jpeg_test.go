/*
DESCRIPTION
  jpeg_test.go provides testing for Parse and Feature.

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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hwdec/decode"
	"github.com/ausocean/hwdec/decode/bitstream"
	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

func segment(code byte, body ...byte) []byte {
	n := len(body) + 2
	return append([]byte{0xff, code, byte(n >> 8), byte(n)}, body...)
}

// testImage returns a two scan image with restart markers and stuffed bytes
// in its first scan, and the scans it holds.
func testImage() ([]byte, []ScanHeader) {
	var img []byte
	img = append(img, 0xff, codeSOI)
	img = append(img, segment(0xe0, make([]byte, 14)...)...)
	img = append(img, segment(codeDQT, make([]byte, 65)...)...)
	img = append(img, segment(codeSOF0, 8, 0, 16, 0, 32, 3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1)...)
	img = append(img, segment(codeDHT, make([]byte, 20)...)...)
	img = append(img, segment(codeDRI, 0, 8)...)

	img = append(img, segment(codeSOS, 3, 1, 0, 2, 0x11, 3, 0x11, 0, 63, 0)...)
	off1 := len(img)
	data1 := []byte{1, 2, 0xff, 0x00, 3, 0xff, codeRST0, 4, 5}
	img = append(img, data1...)

	img = append(img, segment(codeSOS, 1, 1, 0, 0, 63, 0)...)
	off2 := len(img)
	data2 := []byte{6, 7, 8}
	img = append(img, data2...)
	img = append(img, 0xff, codeEOI)

	return img, []ScanHeader{
		{NumComponents: 3, RestartInterval: 8, DataOffset: off1, DataLength: len(data1)},
		{NumComponents: 1, RestartInterval: 8, DataOffset: off2, DataLength: len(data2)},
	}
}

func TestParse(t *testing.T) {
	img, wantScans := testImage()
	pic, scans, err := Parse(img)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	wantPic := &PicParams{Width: 32, Height: 16, NumComponents: 3, TotalScans: 2}
	if !cmp.Equal(pic, wantPic) {
		t.Errorf("unexpected picture params:\n%s", cmp.Diff(wantPic, pic))
	}
	if !cmp.Equal(scans.Scans, wantScans) {
		t.Errorf("unexpected scans:\n%s", cmp.Diff(wantScans, scans.Scans))
	}
}

func TestParseErrors(t *testing.T) {
	img, _ := testImage()
	tests := []struct {
		name string
		img  []byte
	}{
		{name: "not jpeg", img: []byte{0x00, 0x01, 0x02}},
		{name: "truncated", img: img[:40]},
		{name: "no frame", img: append([]byte{0xff, codeSOI}, 0xff, codeEOI)},
	}
	for _, test := range tests {
		_, _, err := Parse(test.img)
		if !status.Is(err, status.ErrInvalidParameter) {
			t.Errorf("%s: expected invalid parameter, got: %v", test.name, err)
		}
	}
}

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestFeatureScans(t *testing.T) {
	img, scans := testImage()
	pic, _, err := Parse(img)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	arena := resource.NewArena(&dumbLogger{})
	data, _ := arena.AllocateBuffer(len(img), "image", resource.UsageInputBitstream, resource.NotLockable, true)

	f, err := NewFeature(&dumbLogger{})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	call := func(i int, s []ScanHeader) error {
		return f.Update(&decode.Params{Mode: decode.ModeProcess, Decode: &decode.DecodeParams{
			DataBuffer:       data,
			DataSize:         10,
			ExecuteCallIndex: i,
			PicParams:        pic,
			SliceParams:      &ScanParams{Scans: s},
		}})
	}

	if err := call(0, scans[:1]); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if f.NumScans() != 1 || f.TotalScans() != 2 || f.HeaderSize() != scans[0].DataOffset {
		t.Errorf("unexpected scan state after first call: %d of %d, header %d", f.NumScans(), f.TotalScans(), f.HeaderSize())
	}
	if f.RequiredSize != scans[0].DataOffset+scans[0].DataLength {
		t.Errorf("unexpected required size: %d", f.RequiredSize)
	}

	if err := call(1, scans[1:]); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if f.NumScans() != 2 || f.RequiredSize != scans[1].DataOffset+scans[1].DataLength {
		t.Errorf("unexpected scan state after second call: %d scans, required %d", f.NumScans(), f.RequiredSize)
	}

	if err := call(2, scans[1:]); !status.Is(err, status.ErrInvalidParameter) {
		t.Errorf("expected invalid parameter for extra scan, got: %v", err)
	}
	if err := call(0, []ScanHeader{{NumComponents: 1, DataOffset: 4}}); !status.Is(err, status.ErrInvalidParameter) {
		t.Errorf("expected invalid parameter for empty scan, got: %v", err)
	}
}

func TestFeatureBadPicture(t *testing.T) {
	arena := resource.NewArena(&dumbLogger{})
	data, _ := arena.AllocateBuffer(16, "image", resource.UsageInputBitstream, resource.NotLockable, true)
	f, _ := NewFeature(&dumbLogger{})
	for _, pic := range []interface{}{nil, &PicParams{}, &PicParams{Width: 8, Height: 8, NumComponents: 5, TotalScans: 1}} {
		err := f.Update(&decode.Params{Mode: decode.ModeProcess, Decode: &decode.DecodeParams{DataBuffer: data, PicParams: pic}})
		if !status.Is(err, status.ErrInvalidParameter) {
			t.Errorf("expected invalid parameter for %v, got: %v", pic, err)
		}
	}
}

type nopPacket struct{}

func (nopPacket) Submit() error { return nil }

// TestSplitImage delivers an image over two execute calls, with each scan
// delivered in the call carrying the start of its data.
func TestSplitImage(t *testing.T) {
	img, scans := testImage()
	img = img[:scans[1].DataOffset+scans[1].DataLength]
	pic, _, err := Parse(append(append([]byte{}, img...), 0xff, codeEOI))
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	log := (*logging.TestLogger)(t)
	arena := resource.NewArena(log)
	g := packet.NewGraph(log)
	c := packet.NewCopier(arena, log)
	g.Register(packet.DecodeID, nopPacket{})
	g.Register(packet.BitstreamConcatID, c)
	f, _ := NewFeature(log)
	fm := decode.NewFeatureManager()
	fm.Register(decode.BasicFeatureID, f)
	pipe, err := decode.NewPipeline(log, fm, g)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	in, err := bitstream.NewJPEGInput(log, arena, c, g, fm, true)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	pipe.AddPre(in)
	pipe.Begin()

	split := scans[1].DataOffset - 4
	parts := [][]byte{img[:split], img[split:]}
	delivered := [][]ScanHeader{scans[:1], scans[1:]}
	for i, part := range parts {
		b, _ := arena.AllocateBuffer(len(part), "segment", resource.UsageInputBitstream, resource.NotLockable, true)
		mem, _ := arena.Memory(b)
		copy(mem, part)
		err := pipe.Execute(&decode.DecodeParams{DataBuffer: b, DataSize: len(part), PicParams: pic, SliceParams: &ScanParams{Scans: delivered[i]}})
		if err != nil {
			t.Fatalf("call %d: did not expect error: %v", i, err)
		}
	}
	if !pipe.Complete() {
		t.Fatalf("image not complete")
	}
	got, _ := arena.Memory(f.DataBuffer)
	if !bytes.Equal(got[:split], parts[0]) {
		t.Errorf("first part mismatch")
	}
	off := resource.AlignCeil(split, resource.CacheLineSize)
	if !bytes.Equal(got[off:off+len(parts[1])], parts[1]) {
		t.Errorf("second part mismatch")
	}
}
