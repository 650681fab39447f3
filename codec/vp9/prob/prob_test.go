/*
DESCRIPTION
  prob_test.go provides testing for probability context buffer initialisation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package prob

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/hwdec/status"
)

func TestLayoutBoundaries(t *testing.T) {
	want := map[string][2]int{ // Name to offset and size.
		"tx8x8":      {0, 2},
		"txPadding":  {12, 52},
		"coef4x4":    {64, CoefProbsSize},
		"coef32x32":  {64 + 3*CoefProbsSize, CoefProbsSize},
		"skip":       {1664, 3},
		"interMode":  {InterProbOffset, 21},
		"partition":  {1756, 48},
		"mvPadding":  {1873, 47},
		"uvMode":     {1920, 90},
		"segTree":    {SegProbOffset, SegTreeProbs},
		"segPred":    {SegProbOffset + SegTreeProbs, SegPredProbs},
		"segPadding": {2020, 28},
	}
	for name, w := range want {
		f, ok := Lookup(name)
		if !ok {
			t.Errorf("no field named %s", name)
			continue
		}
		if f.Offset != w[0] || f.Size != w[1] {
			t.Errorf("field %s at %d size %d, want %d size %d", name, f.Offset, f.Size, w[0], w[1])
		}
	}

	// Fields must tile the buffer exactly.
	off := 0
	for _, f := range Layout() {
		if f.Offset != off {
			t.Fatalf("field %s starts at %d, want %d", f.Name, f.Offset, off)
		}
		off += f.Size
	}
	if off != MaxNumElem {
		t.Errorf("layout ends at %d, want %d", off, MaxNumElem)
	}
	if InterProbOffset+InterProbSize != SegProbOffset {
		t.Errorf("inter region does not end at segmentation region")
	}
}

func TestContextBufferInitNoOverflow(t *testing.T) {
	for _, setToKey := range []bool{true, false} {
		// Guard bytes after the buffer detect writes past MaxNumElem.
		backing := bytes.Repeat([]byte{0xaa}, MaxNumElem+64)
		err := ContextBufferInit(backing[:MaxNumElem], setToKey)
		if err != nil {
			t.Fatalf("did not expect error for setToKey=%v: %v", setToKey, err)
		}
		if !bytes.Equal(backing[MaxNumElem:], bytes.Repeat([]byte{0xaa}, 64)) {
			t.Errorf("write past end of buffer for setToKey=%v", setToKey)
		}
	}
}

func TestContextBufferInitShortBuffer(t *testing.T) {
	err := ContextBufferInit(make([]byte, MaxNumElem-1), false)
	if !status.Is(err, status.ErrNotEnoughSpace) {
		t.Errorf("did not get expected error, got %v", err)
	}
	err = CtxBufDiffInit(make([]byte, 100), true)
	if !status.Is(err, status.ErrNotEnoughSpace) {
		t.Errorf("did not get expected error, got %v", err)
	}
}

func TestContextBufferInitLeavesSegProbs(t *testing.T) {
	buf := make([]byte, MaxNumElem)
	for i := SegProbOffset; i < SegProbOffset+SegTreeProbs+SegPredProbs; i++ {
		buf[i] = 0x11
	}
	for i := SegProbOffset + SegTreeProbs + SegPredProbs; i < MaxNumElem; i++ {
		buf[i] = 0x22
	}
	err := ContextBufferInit(buf, true)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	seg := buf[SegProbOffset : SegProbOffset+SegTreeProbs+SegPredProbs]
	if !bytes.Equal(seg, bytes.Repeat([]byte{0x11}, len(seg))) {
		t.Errorf("segmentation probabilities overwritten: %v", seg)
	}
	if !bytes.Equal(buf[2020:], make([]byte, segPadding)) {
		t.Errorf("segmentation padding not zeroed")
	}
}

func TestContextBufferInitDefaults(t *testing.T) {
	buf := make([]byte, MaxNumElem)
	err := ContextBufferInit(buf, false)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	tests := []struct {
		off  int
		want []byte
	}{
		{0, []byte{100, 66, 20, 152, 15, 101, 3, 136, 37, 5, 52, 13}},
		{64, []byte{195, 29, 183, 84, 49, 136, 8, 42, 71, 31, 107, 169}},
		{1664, []byte{192, 128, 64}},
		{InterProbOffset, []byte{2, 173, 34, 7, 145, 85}},
		{1920, []byte{120, 7, 76, 176, 208, 126, 28, 54, 103}},
	}
	for _, test := range tests {
		got := buf[test.off : test.off+len(test.want)]
		if !bytes.Equal(got, test.want) {
			t.Errorf("unexpected bytes at %d\n%s", test.off, cmp.Diff(test.want, got))
		}
	}
}

// TestKeyInterDivergence checks that key and non-key initialisations differ
// only in the key dependent fields.
func TestKeyInterDivergence(t *testing.T) {
	key := make([]byte, MaxNumElem)
	nonKey := make([]byte, MaxNumElem)
	if err := CtxBufDiffInit(key, true); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if err := CtxBufDiffInit(nonKey, false); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !bytes.Equal(key[:InterProbOffset], nonKey[:InterProbOffset]) {
		t.Errorf("buffers differ before the inter region")
	}
	if !bytes.Equal(key[SegProbOffset:], nonKey[SegProbOffset:]) {
		t.Errorf("buffers differ after the inter region")
	}

	for _, f := range Layout() {
		if f.Offset < InterProbOffset || f.Offset >= SegProbOffset {
			continue
		}
		k := key[f.Offset : f.Offset+f.Size]
		n := nonKey[f.Offset : f.Offset+f.Size]
		switch f.Kind {
		case KindInter, KindPadding:
			if !bytes.Equal(k, make([]byte, f.Size)) {
				t.Errorf("key field %s not zero", f.Name)
			}
		case KindKeyed:
			if !bytes.Equal(k, f.Key()) {
				t.Errorf("key field %s does not hold key frame defaults", f.Name)
			}
		}
		if !bytes.Equal(n, f.Inter()) {
			t.Errorf("non-key field %s does not hold inter defaults", f.Name)
		}
	}

	partition, _ := Lookup("partition")
	if got := key[partition.Offset : partition.Offset+3]; !bytes.Equal(got, []byte{158, 97, 94}) {
		t.Errorf("unexpected key partition probabilities: %v", got)
	}
	uv, _ := Lookup("uvMode")
	if got := nonKey[uv.Offset : uv.Offset+3]; !bytes.Equal(got, []byte{120, 7, 76}) {
		t.Errorf("unexpected inter uv mode probabilities: %v", got)
	}
}

// TestKeyInitInterFieldsZero checks that a key frame initialisation leaves
// every inter only field of the inter region zero, even over stale data.
func TestKeyInitInterFieldsZero(t *testing.T) {
	buf := bytes.Repeat([]byte{0xff}, MaxNumElem)
	err := ContextBufferInit(buf, true)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	for _, f := range Layout() {
		if f.Offset < InterProbOffset || f.Offset >= InterProbOffset+InterProbSize {
			continue
		}
		if f.Kind == KindKeyed {
			continue
		}
		if got := buf[f.Offset : f.Offset+f.Size]; !bytes.Equal(got, make([]byte, f.Size)) {
			t.Errorf("field %s not zero after key initialisation", f.Name)
		}
	}
}

func TestInterDefaults(t *testing.T) {
	buf := make([]byte, MaxNumElem)
	if err := CtxBufDiffInit(buf, false); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	got := InterDefaults()
	if len(got) != InterProbSize {
		t.Fatalf("got %d bytes, want %d", len(got), InterProbSize)
	}
	if !bytes.Equal(got, buf[InterProbOffset:SegProbOffset]) {
		t.Errorf("inter defaults differ from CtxBufDiffInit")
	}
}
