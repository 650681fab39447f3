/*
DESCRIPTION
  resource.go defines the buffer allocator contract used by the decode buffer
  layer, and a scoped lock helper over it.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package resource provides the buffer allocator contract consumed by the
// decode buffer layer, a scoped lock helper and Arena, an in-memory
// implementation of the contract.
package resource

import (
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// CacheLineSize is the alignment in bytes of hardware visible buffers.
const CacheLineSize = 64

// Usage describes how the hardware will access a buffer.
type Usage int

// Buffer usages.
const (
	UsageInternalReadWriteCache Usage = iota
	UsageInternalReadWriteNoCache
	UsageInputBitstream
	UsageStatus
)

// Lockability describes whether, and from which heap, a buffer may be locked
// for CPU access.
type Lockability int

// Buffer lockabilities.
const (
	NotLockable Lockability = iota
	LockableVideoMem
	LockableSystemMem
)

// Buffer is a linear hardware buffer. Buffers are created, resized and
// destroyed by an Allocator; the zero value is not usable.
type Buffer struct {
	Name        string
	Size        int
	Usage       Usage
	Lockability Lockability

	mem    []byte
	locked int
}

// Allocator is the capability based arena that owns all buffers used by the
// decode buffer layer.
type Allocator interface {
	// AllocateBuffer allocates a buffer of size bytes.
	AllocateBuffer(size int, name string, usage Usage, lock Lockability, zeroInit bool) (*Buffer, error)

	// Resize grows b to at least size bytes. Buffers never shrink.
	Resize(b *Buffer, size int, lock Lockability, zeroInit bool) error

	// Destroy frees b.
	Destroy(b *Buffer) error

	// Lock maps b for CPU access. It may stall until prior hardware writers
	// have completed.
	Lock(b *Buffer, write bool) ([]byte, error)

	// Unlock releases a mapping obtained with Lock.
	Unlock(b *Buffer) error
}

// AlignCeil rounds n up to the next multiple of align.
func AlignCeil(n, align int) int {
	return (n + align - 1) / align * align
}

// AutoLock holds a CPU mapping of a buffer until Unlock is called. It is
// intended to be used with defer:
//
//	l := resource.NewAutoLock(a, b)
//	data, err := l.LockForWrite()
//	if err != nil {
//		return err
//	}
//	defer l.Unlock()
type AutoLock struct {
	a      Allocator
	b      *Buffer
	locked bool
}

// NewAutoLock returns an AutoLock for b.
func NewAutoLock(a Allocator, b *Buffer) *AutoLock {
	return &AutoLock{a: a, b: b}
}

// LockForWrite maps the buffer for writing.
func (l *AutoLock) LockForWrite() ([]byte, error) {
	return l.lock(true)
}

// LockForRead maps the buffer for reading.
func (l *AutoLock) LockForRead() ([]byte, error) {
	return l.lock(false)
}

func (l *AutoLock) lock(write bool) ([]byte, error) {
	if l.a == nil || l.b == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "auto lock needs allocator and buffer")
	}
	data, err := l.a.Lock(l.b, write)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrapf(status.ErrLockFailed, "nil mapping for %s", l.b.Name)
	}
	l.locked = true
	return data, nil
}

// Unlock releases the mapping. It is safe to call Unlock more than once.
func (l *AutoLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	return l.a.Unlock(l.b)
}
