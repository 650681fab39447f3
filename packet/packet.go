/*
DESCRIPTION
  packet.go defines the hardware packet contracts used by the decode buffer
  layer: packet identifiers, copy descriptors and the packet scheduler.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package packet provides the hardware packet contracts consumed by the decode
// buffer layer, along with Graph, an in-process scheduler, and Copier, a copy
// engine that executes copy descriptors on the CPU.
package packet

import (
	"fmt"

	"github.com/ausocean/hwdec/resource"
)

// ID identifies a packet within the execution graph.
type ID int

// Packet IDs.
const (
	DecodeID ID = iota
	SegmentInitCopyID
	BitstreamConcatID
	HucVP9ProbUpdateID
	ProbPostCopyID
)

func (id ID) String() string {
	switch id {
	case DecodeID:
		return "decode"
	case SegmentInitCopyID:
		return "segment-init-copy"
	case BitstreamConcatID:
		return "bitstream-concat"
	case HucVP9ProbUpdateID:
		return "huc-vp9-prob-update"
	case ProbPostCopyID:
		return "prob-post-copy"
	default:
		return fmt.Sprintf("packet(%d)", int(id))
	}
}

// CopyParams describes one copy of Length bytes from Src at SrcOffset to Dst
// at DstOffset.
type CopyParams struct {
	Src       *resource.Buffer
	SrcOffset int
	Dst       *resource.Buffer
	DstOffset int
	Length    int
}

// CopyPacket queues copy descriptors. Queued copies execute when the packet
// is submitted by a Scheduler.
type CopyPacket interface {
	PushCopyParams(p CopyParams) error
}

// Packet is a unit of hardware work that can be submitted.
type Packet interface {
	Submit() error
}

// Scheduler activates packets into the execution graph.
type Scheduler interface {
	// ActivatePacket activates the packet with the given id. If immediate is
	// true the packet is submitted before ActivatePacket returns, otherwise it
	// is submitted by the next call to ExecuteActivePackets.
	ActivatePacket(id ID, immediate bool, pass, pipe int) error

	// ExecuteActivePackets submits all activated packets in activation order.
	ExecuteActivePackets() error
}
