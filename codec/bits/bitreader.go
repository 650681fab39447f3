/*
DESCRIPTION
  bitreader.go provides an MSB first bit reader for parsing codec headers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package bits provides an MSB first bit reader for parsing codec headers.
package bits

import (
	"bufio"
	"io"
)

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// BitReader reads bits, most significant first, from an io.Reader.
type BitReader struct {
	r     bytePeeker
	n     uint64
	bits  int
	nRead int
}

// NewBitReader returns a new BitReader.
func NewBitReader(r io.Reader) *BitReader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &BitReader{r: byter}
}

// ReadBits reads n bits, n <= 56, into the least significant part of a
// uint64.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011),
// consecutive reads of 4, 2, 4 and 6 bits give 0x8, 0x3, 0xf and 0x23.
func (br *BitReader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n <<= 8
		br.n |= uint64(b)
		br.bits += 8
	}
	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// PeekBits returns the next n bits without advancing.
func (br *BitReader) PeekBits(n int) (uint64, error) {
	if n <= br.bits {
		return (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1), nil
	}
	byt, err := br.r.Peek((n - br.bits + 7) / 8)
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, err
	}
	v, bits := br.n, br.bits
	for i := 0; n > bits; i++ {
		v = v<<8 | uint64(byt[i])
		bits += 8
	}
	return (v >> uint(bits-n)) & ((1 << uint(n)) - 1), nil
}

// ReadFlag reads a single bit as a bool.
func (br *BitReader) ReadFlag() (bool, error) {
	b, err := br.ReadBits(1)
	return b == 1, err
}

// ReadSigned reads an n bit magnitude followed by a sign bit.
func (br *BitReader) ReadSigned(n int) (int, error) {
	v, err := br.ReadBits(n)
	if err != nil {
		return 0, err
	}
	neg, err := br.ReadFlag()
	if err != nil {
		return 0, err
	}
	if neg {
		return -int(v), nil
	}
	return int(v), nil
}

// ByteAligned returns true if the reader is at the start of a byte.
func (br *BitReader) ByteAligned() bool {
	return br.bits == 0
}

// BytesRead returns the number of bytes consumed from the source, including
// a partially read byte.
func (br *BitReader) BytesRead() int {
	return br.nRead
}
