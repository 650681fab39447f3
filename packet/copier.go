/*
DESCRIPTION
  copier.go provides Copier, a copy packet that executes its descriptors on
  the CPU.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package packet

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// Memory provides the device view of buffer contents.
type Memory interface {
	Memory(b *resource.Buffer) ([]byte, error)
}

// Copier is a CopyPacket and Packet that performs its queued copies on
// submission.
type Copier struct {
	mem   Memory
	log   logging.Logger
	queue []CopyParams
}

// NewCopier returns a new Copier operating on mem.
func NewCopier(mem Memory, log logging.Logger) *Copier {
	return &Copier{mem: mem, log: log}
}

// PushCopyParams implements CopyPacket.
func (c *Copier) PushCopyParams(p CopyParams) error {
	if p.Src == nil || p.Dst == nil {
		return errors.Wrap(status.ErrNullDependency, "copy needs source and destination")
	}
	if p.SrcOffset < 0 || p.DstOffset < 0 || p.Length < 0 {
		return errors.Wrapf(status.ErrInvalidParameter, "bad copy src offset %d dst offset %d length %d", p.SrcOffset, p.DstOffset, p.Length)
	}
	c.queue = append(c.queue, p)
	return nil
}

// Pending returns the number of queued copies.
func (c *Copier) Pending() int { return len(c.queue) }

// Submit implements Packet. The queue is emptied even if a copy fails.
func (c *Copier) Submit() error {
	if c.mem == nil {
		return errors.Wrap(status.ErrNullDependency, "copier has no memory")
	}
	queue := c.queue
	c.queue = nil
	for i, p := range queue {
		src, err := c.mem.Memory(p.Src)
		if err != nil {
			return errors.Wrapf(err, "copy %d source", i)
		}
		dst, err := c.mem.Memory(p.Dst)
		if err != nil {
			return errors.Wrapf(err, "copy %d destination", i)
		}
		if p.SrcOffset+p.Length > len(src) || p.DstOffset+p.Length > len(dst) {
			c.log.Error("copy out of bounds", "src", p.Src.Name, "srcOffset", p.SrcOffset, "dst", p.Dst.Name, "dstOffset", p.DstOffset, "length", p.Length)
			return errors.Wrapf(status.ErrInvalidParameter, "copy %d out of bounds", i)
		}
		copy(dst[p.DstOffset:p.DstOffset+p.Length], src[p.SrcOffset:p.SrcOffset+p.Length])
	}
	c.log.Debug("executed copies", "n", len(queue))
	return nil
}
