/*
DESCRIPTION
  arena.go provides Arena, an Allocator backed by Go memory.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package resource

import (
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/status"
)

// Arena is an Allocator backed by Go memory. Hardware engines emulated on
// the CPU access buffer contents through Memory, which ignores lockability.
type Arena struct {
	mu    sync.Mutex
	log   logging.Logger
	bufs  map[*Buffer]struct{}
	bytes int
}

// NewArena returns a new Arena.
func NewArena(log logging.Logger) *Arena {
	return &Arena{log: log, bufs: make(map[*Buffer]struct{})}
}

// AllocateBuffer implements Allocator. Arena memory is always zeroed.
func (a *Arena) AllocateBuffer(size int, name string, usage Usage, lock Lockability, zeroInit bool) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.Wrapf(status.ErrInvalidParameter, "cannot allocate %d bytes for %s", size, name)
	}
	b := &Buffer{
		Name:        name,
		Size:        size,
		Usage:       usage,
		Lockability: lock,
		mem:         make([]byte, size),
	}

	a.mu.Lock()
	a.bufs[b] = struct{}{}
	a.bytes += size
	a.mu.Unlock()

	a.log.Debug("allocated buffer", "name", name, "size", size)
	return b, nil
}

// Resize implements Allocator. Growth preserves the existing contents and
// new bytes are zero.
func (a *Arena) Resize(b *Buffer, size int, lock Lockability, zeroInit bool) error {
	if b == nil {
		return errors.Wrap(status.ErrNullDependency, "cannot resize nil buffer")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.bufs[b]; !ok {
		return errors.Wrapf(status.ErrInvalidParameter, "buffer %s not owned by arena", b.Name)
	}
	b.Lockability = lock
	if size <= b.Size {
		return nil
	}
	if b.locked > 0 {
		return errors.Wrapf(status.ErrLockFailed, "cannot resize locked buffer %s", b.Name)
	}

	mem := make([]byte, size)
	copy(mem, b.mem)
	a.bytes += size - b.Size
	a.log.Debug("resized buffer", "name", b.Name, "from", b.Size, "to", size)
	b.mem = mem
	b.Size = size
	return nil
}

// Destroy implements Allocator.
func (a *Arena) Destroy(b *Buffer) error {
	if b == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.bufs[b]; !ok {
		return errors.Wrapf(status.ErrInvalidParameter, "buffer %s not owned by arena", b.Name)
	}
	delete(a.bufs, b)
	a.bytes -= b.Size
	b.mem = nil
	b.locked = 0
	return nil
}

// Lock implements Allocator.
func (a *Arena) Lock(b *Buffer, write bool) ([]byte, error) {
	if b == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "cannot lock nil buffer")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.bufs[b]; !ok {
		return nil, errors.Wrapf(status.ErrLockFailed, "buffer %s not owned by arena", b.Name)
	}
	if b.Lockability == NotLockable {
		return nil, errors.Wrapf(status.ErrLockFailed, "buffer %s is not lockable", b.Name)
	}
	b.locked++
	return b.mem[:b.Size], nil
}

// Unlock implements Allocator.
func (a *Arena) Unlock(b *Buffer) error {
	if b == nil {
		return errors.Wrap(status.ErrNullDependency, "cannot unlock nil buffer")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if b.locked == 0 {
		return errors.Wrapf(status.ErrInvalidParameter, "buffer %s is not locked", b.Name)
	}
	b.locked--
	return nil
}

// Memory returns the device view of b.
func (a *Arena) Memory(b *Buffer) ([]byte, error) {
	if b == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "nil buffer")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.bufs[b]; !ok {
		return nil, errors.Wrapf(status.ErrInvalidParameter, "buffer %s not owned by arena", b.Name)
	}
	return b.mem[:b.Size], nil
}

// Live returns the number of live buffers and their total size in bytes.
func (a *Arena) Live() (n, bytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bufs), a.bytes
}
