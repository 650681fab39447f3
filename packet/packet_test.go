/*
DESCRIPTION
  packet_test.go provides testing for Graph and Copier.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package packet

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

type recorder struct {
	id  ID
	log *[]ID
}

func (r recorder) Submit() error {
	*r.log = append(*r.log, r.id)
	return nil
}

func TestGraphOrdering(t *testing.T) {
	g := NewGraph(&dumbLogger{})
	var got []ID
	for _, id := range []ID{DecodeID, SegmentInitCopyID, BitstreamConcatID} {
		if err := g.Register(id, recorder{id: id, log: &got}); err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
	}

	steps := []struct {
		id        ID
		immediate bool
	}{
		{BitstreamConcatID, false},
		{SegmentInitCopyID, true},
		{DecodeID, false},
	}
	for _, s := range steps {
		if err := g.ActivatePacket(s.id, s.immediate, 0, 0); err != nil {
			t.Fatalf("did not expect error activating %v: %v", s.id, err)
		}
	}

	if !cmp.Equal(got, []ID{SegmentInitCopyID}) {
		t.Errorf("immediate packet not submitted first, got %v", got)
	}
	if !cmp.Equal(g.Active(), []ID{BitstreamConcatID, DecodeID}) {
		t.Errorf("unexpected active list: %v", g.Active())
	}

	if err := g.ExecuteActivePackets(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := []ID{SegmentInitCopyID, BitstreamConcatID, DecodeID}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected submission order\n%s", cmp.Diff(want, got))
	}
	if len(g.Active()) != 0 {
		t.Errorf("active list not cleared")
	}
}

// activator activates further packets when submitted.
type activator struct {
	recorder
	g    *Graph
	next []ID
}

func (a activator) Submit() error {
	a.recorder.Submit()
	for _, id := range a.next {
		if err := a.g.ActivatePacket(id, false, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

func TestGraphActivateDuringSubmit(t *testing.T) {
	g := NewGraph(&dumbLogger{})
	var got []ID
	err := g.Register(BitstreamConcatID, activator{recorder: recorder{id: BitstreamConcatID, log: &got}, g: g, next: []ID{SegmentInitCopyID, ProbPostCopyID}})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	for _, id := range []ID{DecodeID, SegmentInitCopyID, ProbPostCopyID} {
		if err := g.Register(id, recorder{id: id, log: &got}); err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
	}

	for _, id := range []ID{BitstreamConcatID, DecodeID} {
		if err := g.ActivatePacket(id, false, 0, 0); err != nil {
			t.Fatalf("did not expect error activating %v: %v", id, err)
		}
	}
	if err := g.ExecuteActivePackets(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	want := []ID{BitstreamConcatID, DecodeID}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected submission order\n%s", cmp.Diff(want, got))
	}
	wantActive := []ID{SegmentInitCopyID, ProbPostCopyID}
	if !cmp.Equal(g.Active(), wantActive) {
		t.Errorf("unexpected active list\n%s", cmp.Diff(wantActive, g.Active()))
	}
}

func TestGraphUnregistered(t *testing.T) {
	g := NewGraph(&dumbLogger{})
	err := g.ActivatePacket(HucVP9ProbUpdateID, false, 0, 0)
	if !status.Is(err, status.ErrNullDependency) {
		t.Errorf("did not get expected error, got %v", err)
	}
}

func TestCopier(t *testing.T) {
	a := resource.NewArena(&dumbLogger{})
	src, _ := a.AllocateBuffer(8, "src", resource.UsageInputBitstream, resource.LockableSystemMem, true)
	dst, _ := a.AllocateBuffer(16, "dst", resource.UsageInternalReadWriteCache, resource.NotLockable, true)
	mem, _ := a.Memory(src)
	copy(mem, "abcdefgh")

	c := NewCopier(a, &dumbLogger{})
	err := c.PushCopyParams(CopyParams{Src: src, SrcOffset: 2, Dst: dst, DstOffset: 10, Length: 4})
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected one pending copy, got %d", c.Pending())
	}

	dmem, _ := a.Memory(dst)
	if !bytes.Equal(dmem, make([]byte, 16)) {
		t.Fatalf("copy executed before submission")
	}
	if err := c.Submit(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := append(make([]byte, 10), []byte("cdef\x00\x00")...)
	if !bytes.Equal(dmem, want) {
		t.Errorf("did not get expected result\ngot: %v\nwant: %v", dmem, want)
	}
}

func TestCopierOutOfBounds(t *testing.T) {
	a := resource.NewArena(&dumbLogger{})
	src, _ := a.AllocateBuffer(8, "src", resource.UsageInputBitstream, resource.LockableSystemMem, true)
	dst, _ := a.AllocateBuffer(8, "dst", resource.UsageInternalReadWriteCache, resource.NotLockable, true)

	c := NewCopier(a, &dumbLogger{})
	c.PushCopyParams(CopyParams{Src: src, Dst: dst, DstOffset: 4, Length: 8})
	err := c.Submit()
	if !status.Is(err, status.ErrInvalidParameter) {
		t.Errorf("did not get expected error, got %v", err)
	}
	if c.Pending() != 0 {
		t.Errorf("queue not cleared after failed submission")
	}
}
