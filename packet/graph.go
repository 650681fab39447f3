/*
DESCRIPTION
  graph.go provides Graph, an in-process Scheduler.

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

	"github.com/ausocean/hwdec/status"
)

type activation struct {
	id         ID
	pass, pipe int
}

// Graph is a Scheduler that submits registered packets in activation order.
type Graph struct {
	log     logging.Logger
	packets map[ID]Packet
	active  []activation
}

// NewGraph returns a new Graph.
func NewGraph(log logging.Logger) *Graph {
	return &Graph{log: log, packets: make(map[ID]Packet)}
}

// Register adds p to the graph under id, replacing any packet already
// registered with that id.
func (g *Graph) Register(id ID, p Packet) error {
	if p == nil {
		return errors.Wrapf(status.ErrNullDependency, "nil packet for %v", id)
	}
	g.packets[id] = p
	return nil
}

// Packet returns the packet registered with id.
func (g *Graph) Packet(id ID) (Packet, bool) {
	p, ok := g.packets[id]
	return p, ok
}

// ActivatePacket implements Scheduler.
func (g *Graph) ActivatePacket(id ID, immediate bool, pass, pipe int) error {
	p, ok := g.packets[id]
	if !ok {
		return errors.Wrapf(status.ErrNullDependency, "no packet registered for %v", id)
	}
	if immediate {
		g.log.Debug("submitting packet", "id", id.String(), "pass", pass, "pipe", pipe)
		return errors.Wrapf(p.Submit(), "could not submit %v", id)
	}
	g.active = append(g.active, activation{id: id, pass: pass, pipe: pipe})
	return nil
}

// ExecuteActivePackets implements Scheduler. The active list is cleared even
// if a submission fails.
func (g *Graph) ExecuteActivePackets() error {
	active := g.active
	g.active = nil
	for _, a := range active {
		g.log.Debug("submitting packet", "id", a.id.String(), "pass", a.pass, "pipe", a.pipe)
		err := g.packets[a.id].Submit()
		if err != nil {
			return errors.Wrapf(err, "could not submit %v", a.id)
		}
	}
	return nil
}

// Active returns the IDs of activated packets awaiting submission.
func (g *Graph) Active() []ID {
	ids := make([]ID, len(g.active))
	for i, a := range g.active {
		ids[i] = a.id
	}
	return ids
}
