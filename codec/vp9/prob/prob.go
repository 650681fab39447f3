/*
DESCRIPTION
  prob.go lays out VP9 probability context buffers as consumed by the decode
  hardware and initialises them with default probabilities.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package prob builds VP9 probability context buffers. A context buffer is a
// fixed layout of MaxNumElem bytes; region boundaries never move, so fields
// that are not written for a frame type still occupy their bytes.
package prob

import (
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// Buffer layout.
const (
	MaxNumElem       = 2048 // Size of a probability context buffer.
	InterProbOffset  = 1667 // Start of the fields that differ between key and non-key frames.
	InterProbSize    = 343  // Size of the region starting at InterProbOffset.
	SegProbOffset    = 2010 // Start of the segmentation tree and prediction probabilities.
	SegTreeProbs     = 7
	SegPredProbs     = 3
	CoefProbsSize    = 396 // Coefficient probabilities of one transform size.
	NumFrameContexts = 4
)

// Table dimensions.
const (
	txSizeContexts     = 2
	skipContexts       = 3
	interModeContexts  = 7
	interModes         = 4
	switchableFilters  = 3
	intraInterContexts = 4
	compInterContexts  = 5
	refContexts        = 5
	blockSizeGroups    = 4
	intraModes         = 10
	partitionContexts  = 16
	partitionTypes     = 4
	mvJoints           = 4
	mvClasses          = 11
	class0Size         = 2
	mvOffsetBits       = 10
	mvFPSize           = 4
	planeTypes         = 2
	refTypes           = 2
	coefBands          = 6
	prevCoefContexts   = 6
	band0Contexts      = 3
	unconstrainedNodes = 3
)

// Alignment padding, in bytes, between regions.
const (
	txPadding   = 52
	coefPadding = 16
	mvPadding   = 47
	segPadding  = 28
)

// Kind describes how a field is written for key and non-key frames.
type Kind int

const (
	KindCommon   Kind = iota // Same default for every frame type.
	KindInter                // Inter default, zero for key frames.
	KindKeyed                // Key frame default for key frames, inter default otherwise.
	KindPadding              // Always zero.
	KindReserved             // Never written; filled by the caller.
)

// Field is one region of the probability context buffer.
type Field struct {
	Name   string
	Kind   Kind
	Offset int
	Size   int

	key, inter []byte
}

// Key returns the bytes written for key frames.
func (f Field) Key() []byte {
	switch f.Kind {
	case KindKeyed:
		return f.key
	case KindCommon:
		return f.inter
	default:
		return make([]byte, f.Size)
	}
}

// Inter returns the bytes written for non-key frames.
func (f Field) Inter() []byte {
	switch f.Kind {
	case KindCommon, KindInter, KindKeyed:
		return f.inter
	default:
		return make([]byte, f.Size)
	}
}

var (
	commonFields   []Field // Written by ContextBufferInit only.
	diffFields     []Field // Written by CtxBufDiffInit.
	trailingFields []Field // Segmentation region.
)

func init() {
	commonFields = layout(0,
		common("tx8x8", flatten(defaultTx8x8[:], row1)),
		common("tx16x16", flatten(defaultTx16x16[:], row2)),
		common("tx32x32", flatten(defaultTx32x32[:], row3)),
		pad("txPadding", txPadding),
		common("coef4x4", defaultCoef4x4.bytes()),
		common("coef8x8", defaultCoef8x8.bytes()),
		common("coef16x16", defaultCoef16x16.bytes()),
		common("coef32x32", defaultCoef32x32.bytes()),
		pad("coefPadding", coefPadding),
		common("skip", defaultSkip[:]),
	)

	diffFields = layout(InterProbOffset,
		inter("interMode", flatten(defaultInterMode[:], row3)),
		inter("switchableInterp", flatten(defaultSwitchableInterp[:], row2)),
		inter("intraInter", defaultIntraInter[:]),
		inter("compInter", defaultCompInter[:]),
		inter("singleRef", flatten(defaultSingleRef[:], row2)),
		inter("compRef", defaultCompRef[:]),
		inter("yMode", flatten(defaultYMode[:], row9)),
		keyed("partition", flatten(kfPartition[:], row3), flatten(defaultPartition[:], row3)),
		inter("mvJoints", defaultMVJoints[:]),
		inter("mvClasses", mvClassBytes()),
		inter("mvFP", mvFPBytes()),
		inter("mvHP", mvHPBytes()),
		pad("mvPadding", mvPadding),
		keyed("uvMode", flatten(kfUVMode[:], row9), flatten(defaultUVMode[:], row9)),
	)

	trailingFields = layout(SegProbOffset,
		Field{Name: "segTree", Kind: KindReserved, Size: SegTreeProbs},
		Field{Name: "segPred", Kind: KindReserved, Size: SegPredProbs},
		pad("segPadding", segPadding),
	)
}

// ContextBufferInit initialises buf with default probabilities. If setToKey
// is true, fields used only by inter frames are zero and the partition and
// uv mode fields take their key frame defaults. The segmentation tree and
// prediction probabilities are left for the caller to fill.
func ContextBufferInit(buf []byte, setToKey bool) error {
	if len(buf) < MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "probability buffer is %d bytes, need %d", len(buf), MaxNumElem)
	}
	clear(buf[:SegProbOffset])

	c := cursor{buf: buf}
	err := c.emit(commonFields, setToKey)
	if err != nil {
		return err
	}
	if c.off != InterProbOffset {
		return errors.Wrapf(status.ErrNotEnoughSpace, "common fields end at %d, want %d", c.off, InterProbOffset)
	}

	err = CtxBufDiffInit(buf, setToKey)
	if err != nil {
		return err
	}

	c.off = SegProbOffset
	err = c.emit(trailingFields, setToKey)
	if err != nil {
		return err
	}
	if c.off != MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "segmentation fields end at %d, want %d", c.off, MaxNumElem)
	}
	return nil
}

// CtxBufDiffInit writes only the fields that differ between key and non-key
// frames, that is the region of InterProbSize bytes at InterProbOffset.
func CtxBufDiffInit(buf []byte, setToKey bool) error {
	if len(buf) < MaxNumElem {
		return errors.Wrapf(status.ErrNotEnoughSpace, "probability buffer is %d bytes, need %d", len(buf), MaxNumElem)
	}
	c := cursor{buf: buf, off: InterProbOffset}
	err := c.emit(diffFields, setToKey)
	if err != nil {
		return err
	}
	if c.off != SegProbOffset {
		return errors.Wrapf(status.ErrNotEnoughSpace, "key dependent fields end at %d, want %d", c.off, SegProbOffset)
	}
	return nil
}

// InterDefaults returns the non-key frame defaults of the region of
// InterProbSize bytes at InterProbOffset.
func InterDefaults() []byte {
	buf := make([]byte, MaxNumElem)
	for _, f := range diffFields {
		copy(buf[f.Offset:], f.Inter())
	}
	return buf[InterProbOffset:SegProbOffset]
}

// Layout returns every field of the buffer in offset order.
func Layout() []Field {
	fields := make([]Field, 0, len(commonFields)+len(diffFields)+len(trailingFields))
	fields = append(fields, commonFields...)
	fields = append(fields, diffFields...)
	return append(fields, trailingFields...)
}

// Lookup returns the field with the given name.
func Lookup(name string) (Field, bool) {
	for _, f := range Layout() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// cursor writes fields into a probability buffer. The offset advances by the
// size of every field whether or not it is written.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) emit(fields []Field, setToKey bool) error {
	for _, f := range fields {
		if c.off+f.Size > MaxNumElem {
			return errors.Wrapf(status.ErrNotEnoughSpace, "field %s at %d overflows probability buffer", f.Name, c.off)
		}
		dst := c.buf[c.off : c.off+f.Size]
		switch {
		case f.Kind == KindReserved:
		case setToKey:
			copy(dst, f.Key())
		default:
			copy(dst, f.Inter())
		}
		c.off += f.Size
	}
	return nil
}

// layout assigns consecutive offsets to fields starting at off.
func layout(off int, fields ...Field) []Field {
	for i := range fields {
		fields[i].Offset = off
		off += fields[i].Size
	}
	return fields
}

func common(name string, b []byte) Field {
	return Field{Name: name, Kind: KindCommon, Size: len(b), inter: b}
}

func inter(name string, b []byte) Field {
	return Field{Name: name, Kind: KindInter, Size: len(b), inter: b}
}

func keyed(name string, key, inter []byte) Field {
	return Field{Name: name, Kind: KindKeyed, Size: len(inter), key: key, inter: inter}
}

func pad(name string, n int) Field {
	return Field{Name: name, Kind: KindPadding, Size: n}
}

// flatten concatenates fixed size rows.
func flatten[T any](rows []T, row func(T) []byte) []byte {
	var b []byte
	for _, r := range rows {
		b = append(b, row(r)...)
	}
	return b
}

func row1(r [1]uint8) []byte { return r[:] }
func row2(r [2]uint8) []byte { return r[:] }
func row3(r [3]uint8) []byte { return r[:] }
func row9(r [9]uint8) []byte { return r[:] }

// bytes serialises coefficient probabilities, skipping the unused band 0
// contexts.
func (c *coefProbs) bytes() []byte {
	b := make([]byte, 0, CoefProbsSize)
	for p := range c {
		for r := range c[p] {
			for band := range c[p][r] {
				n := prevCoefContexts
				if band == 0 {
					n = band0Contexts
				}
				for ctx := 0; ctx < n; ctx++ {
					b = append(b, c[p][r][band][ctx][:]...)
				}
			}
		}
	}
	return b
}

func mvClassBytes() []byte {
	var b []byte
	for _, c := range defaultMVComps {
		b = append(b, c.sign)
		b = append(b, c.classes[:]...)
		b = append(b, c.class0[:]...)
		b = append(b, c.bits[:]...)
	}
	return b
}

func mvFPBytes() []byte {
	var b []byte
	for _, c := range defaultMVComps {
		b = append(b, flatten(c.class0FP[:], row3)...)
		b = append(b, c.fp[:]...)
	}
	return b
}

func mvHPBytes() []byte {
	var b []byte
	for _, c := range defaultMVComps {
		b = append(b, c.class0HP, c.hp)
	}
	return b
}
