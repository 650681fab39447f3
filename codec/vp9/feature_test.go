/*
DESCRIPTION
  feature_test.go provides testing for the VP9 Feature's per frame decisions.

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

	"github.com/ausocean/hwdec/codec/vp9/prob"
	"github.com/ausocean/hwdec/decode"
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

func pic(frameType int, ctx int) *PicParams {
	return &PicParams{
		FrameType:       frameType,
		ShowFrame:       true,
		FrameWidth:      64,
		FrameHeight:     64,
		FrameContextIdx: ctx,
		SegTreeProbs:    defaultSegTree(),
		SegPredProbs:    defaultSegPred(),
	}
}

func keyPic(ctx int) *PicParams   { return pic(KeyFrame, ctx) }
func interPic(ctx int) *PicParams { return pic(NonKeyFrame, ctx) }

func intraOnlyPic(ctx, reset int) *PicParams {
	p := pic(NonKeyFrame, ctx)
	p.ShowFrame = false
	p.IntraOnly = true
	p.ResetFrameContext = reset
	return p
}

func update(t *testing.T, f *Feature, p *PicParams, call int, data *resource.Buffer) error {
	t.Helper()
	return f.Update(&decode.Params{
		Mode:   decode.ModeProcess,
		Decode: &decode.DecodeParams{DataBuffer: data, DataSize: data.Size, ExecuteCallIndex: call, PicParams: p},
	})
}

func TestDetermine(t *testing.T) {
	seg := interPic(2)
	seg.SegmentationEnabled = true
	seg.SegmentationUpdateMap = true

	wide := interPic(2)
	wide.FrameWidth = 128

	errRes := interPic(1)
	errRes.FrameWidth = 128
	errRes.ErrorResilientMode = true

	tests := []struct {
		name      string
		pic       *PicParams
		wantCtx   int
		wantFull  bool
		wantFlags ProbUpdateFlags
		wantSeg   bool
	}{
		{
			name:      "key frame resets every context",
			pic:       keyPic(2),
			wantCtx:   0,
			wantFull:  true,
			wantFlags: ProbUpdateFlags{ProbReset: true, ResetFull: true, ResetKeyDefault: true, ResetAll: true},
			wantSeg:   true,
		},
		{
			name:      "inter after key applies pending partial reset",
			pic:       interPic(0),
			wantFlags: ProbUpdateFlags{ProbReset: true},
		},
		{
			name: "second inter frame",
			pic:  interPic(0),
		},
		{
			name:      "intra only without reset saves",
			pic:       intraOnlyPic(1, ResetNone),
			wantCtx:   1,
			wantFlags: ProbUpdateFlags{ProbSave: true, ProbReset: true, ResetKeyDefault: true},
			wantSeg:   true,
		},
		{
			name:      "inter restores saved context",
			pic:       interPic(1),
			wantCtx:   1,
			wantFlags: ProbUpdateFlags{ProbRestore: true},
		},
		{
			name:      "intra only resetting its context",
			pic:       intraOnlyPic(3, ResetCurrent),
			wantCtx:   3,
			wantFull:  true,
			wantFlags: ProbUpdateFlags{ProbReset: true, ResetFull: true, ResetKeyDefault: true},
			wantSeg:   true,
		},
		{
			name:      "inter after specified reset",
			pic:       interPic(3),
			wantCtx:   3,
			wantFlags: ProbUpdateFlags{ProbReset: true},
		},
		{
			name:      "segmentation map update",
			pic:       seg,
			wantCtx:   2,
			wantFlags: ProbUpdateFlags{SegProbCopy: true},
		},
		{
			name:    "resolution change resets segment ids",
			pic:     wide,
			wantCtx: 2,
			wantSeg: true,
		},
		{
			name:      "error resilient inter frame",
			pic:       errRes,
			wantCtx:   0,
			wantFull:  true,
			wantFlags: ProbUpdateFlags{ProbReset: true, ResetFull: true, ResetAll: true},
			wantSeg:   true,
		},
		{
			name: "inter after error resilient frame",
			pic: func() *PicParams {
				p := interPic(0)
				p.FrameWidth = 128
				return p
			}(),
		},
	}

	log := &dumbLogger{}
	arena := resource.NewArena(log)
	f, err := NewFeature(log, arena, false)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	data, _ := arena.AllocateBuffer(64, "data", resource.UsageInputBitstream, resource.NotLockable, true)

	// Cases depend on the state left by earlier cases so are run in order.
	for _, test := range tests {
		if err := update(t, f, test.pic, 0, data); err != nil {
			t.Fatalf("%s: did not expect error: %v", test.name, err)
		}
		if f.FrameCtxIdx != test.wantCtx {
			t.Errorf("%s: unexpected frame context: got %d, want %d", test.name, f.FrameCtxIdx, test.wantCtx)
		}
		if f.FullProbBufferUpdate != test.wantFull {
			t.Errorf("%s: unexpected full update: got %v, want %v", test.name, f.FullProbBufferUpdate, test.wantFull)
		}
		if !cmp.Equal(f.Flags, test.wantFlags) {
			t.Errorf("%s: unexpected flags:\n%s", test.name, cmp.Diff(test.wantFlags, f.Flags))
		}
		if f.ResetSegIDBuffer != test.wantSeg {
			t.Errorf("%s: unexpected segment id reset: got %v, want %v", test.name, f.ResetSegIDBuffer, test.wantSeg)
		}
	}
}

func TestDeterminePostCommit(t *testing.T) {
	log := &dumbLogger{}
	arena := resource.NewArena(log)
	f, err := NewFeature(log, arena, true)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	data, _ := arena.AllocateBuffer(64, "data", resource.UsageInputBitstream, resource.NotLockable, true)

	for _, p := range []*PicParams{keyPic(0), interPic(0)} {
		if err := update(t, f, p, 0, data); err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
	}
	if f.Flags.ProbReset {
		t.Errorf("pending partial reset used with post commit")
	}
}

func TestUpdateOnlyOnFirstCall(t *testing.T) {
	log := &dumbLogger{}
	arena := resource.NewArena(log)
	f, err := NewFeature(log, arena, false)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	data, _ := arena.AllocateBuffer(64, "data", resource.UsageInputBitstream, resource.NotLockable, true)

	if err := update(t, f, keyPic(0), 0, data); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if err := update(t, f, nil, 1, data); err != nil {
		t.Fatalf("did not expect error on later call: %v", err)
	}
	if !f.Flags.ResetAll {
		t.Errorf("later execute call changed frame decisions")
	}
}

func TestUpdateBadParams(t *testing.T) {
	log := &dumbLogger{}
	arena := resource.NewArena(log)
	f, err := NewFeature(log, arena, false)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	data, _ := arena.AllocateBuffer(64, "data", resource.UsageInputBitstream, resource.NotLockable, true)

	bad := keyPic(0)
	bad.FrameContextIdx = prob.NumFrameContexts
	empty := keyPic(0)
	empty.FrameWidth = 0

	for _, p := range []*PicParams{nil, bad, empty} {
		if err := update(t, f, p, 0, data); !status.Is(err, status.ErrInvalidParameter) {
			t.Errorf("expected invalid parameter, got: %v", err)
		}
	}
}

func TestSegmentIDBufferGrows(t *testing.T) {
	log := &dumbLogger{}
	arena := resource.NewArena(log)
	f, err := NewFeature(log, arena, false)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	data, _ := arena.AllocateBuffer(64, "data", resource.UsageInputBitstream, resource.NotLockable, true)

	sizes := []struct{ w, h, want int }{
		{64, 64, 64},
		{352, 288, 6 * 5 * 64},
		{64, 64, 6 * 5 * 64},
	}
	for _, s := range sizes {
		p := keyPic(0)
		p.FrameWidth, p.FrameHeight = s.w, s.h
		if err := update(t, f, p, 0, data); err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		if f.SegmentIDBuffer.Size != s.want {
			t.Errorf("%dx%d: unexpected segment id buffer size: got %d, want %d", s.w, s.h, f.SegmentIDBuffer.Size, s.want)
		}
	}

	if err := f.Close(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	n, _ := arena.Live()
	if n != 1 {
		t.Errorf("unexpected live buffers after close: got %d, want 1", n)
	}
}

func TestSteps(t *testing.T) {
	all := ProbUpdateFlags{SegProbCopy: true, ProbSave: true, ProbReset: true, ProbRestore: true}
	if !cmp.Equal(all.Steps(), prob.Order[:]) {
		t.Errorf("unexpected step order: %v", all.Steps())
	}
	some := ProbUpdateFlags{ProbRestore: true, ProbReset: true}
	want := []prob.Step{prob.StepReset, prob.StepRestore}
	if !cmp.Equal(some.Steps(), want) {
		t.Errorf("unexpected steps: got %v, want %v", some.Steps(), want)
	}
}
