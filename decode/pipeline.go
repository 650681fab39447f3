/*
DESCRIPTION
  pipeline.go provides Pipeline, which runs the per-frame preparation steps of
  a decode session in a fixed order before activating the decode packet.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package decode provides the decode session skeleton: features, execute
// call parameters and the pipeline that sequences per-frame preparation.
package decode

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/hwdec/packet"
	"github.com/ausocean/hwdec/resource"
	"github.com/ausocean/hwdec/status"
)

// Mode is the pipeline mode of a Prepare call.
type Mode int

// Pipeline modes.
const (
	ModeBegin   Mode = iota // Start of a new coded frame.
	ModeProcess             // An execute call carrying bitstream data.
)

// DecodeParams describes one execute call. A coded frame may be delivered
// over several execute calls.
type DecodeParams struct {
	DataBuffer *resource.Buffer
	DataOffset int
	DataSize   int

	// ExecuteCallIndex is the index of this call within the frame. It is set
	// by Pipeline.Execute.
	ExecuteCallIndex int

	// Codec specific parameters, interpreted by the codec feature.
	PicParams   interface{}
	SliceParams interface{}
}

// Params are passed to features and sub-pipelines.
type Params struct {
	Mode   Mode
	Decode *DecodeParams
}

// FirstExecuteCall returns true if p is the first execute call of a frame.
func (p *Params) FirstExecuteCall() bool {
	return p.Mode == ModeProcess && p.Decode != nil && p.Decode.ExecuteCallIndex == 0
}

// SubPipeline is a preparation step run for every pipeline mode.
type SubPipeline interface {
	Prepare(p *Params) error
}

// Completer is implemented by sub-pipelines that gate decode packet
// activation on frame completeness.
type Completer interface {
	IsComplete() bool
}

// Pipeline sequences the preparation of coded frames.
type Pipeline struct {
	log      logging.Logger
	features *FeatureManager
	sched    packet.Scheduler
	pre      []SubPipeline
	post     []SubPipeline
	input    Completer

	calls     int
	submitted bool
}

// NewPipeline returns a new Pipeline.
func NewPipeline(log logging.Logger, features *FeatureManager, sched packet.Scheduler) (*Pipeline, error) {
	if log == nil || features == nil || sched == nil {
		return nil, errors.Wrap(status.ErrNullDependency, "pipeline needs logger, features and scheduler")
	}
	return &Pipeline{log: log, features: features, sched: sched}, nil
}

// Features returns the pipeline's feature manager.
func (p *Pipeline) Features() *FeatureManager { return p.features }

// AddPre appends a sub-pipeline run before decode packet activation. The
// first added sub-pipeline implementing Completer gates activation.
func (p *Pipeline) AddPre(s SubPipeline) error {
	if s == nil {
		return errors.Wrap(status.ErrNullDependency, "nil sub-pipeline")
	}
	p.pre = append(p.pre, s)
	if c, ok := s.(Completer); ok && p.input == nil {
		p.input = c
	}
	return nil
}

// AddPost appends a sub-pipeline run after decode packet activation.
func (p *Pipeline) AddPost(s SubPipeline) error {
	if s == nil {
		return errors.Wrap(status.ErrNullDependency, "nil sub-pipeline")
	}
	p.post = append(p.post, s)
	return nil
}

// Begin starts a new coded frame.
func (p *Pipeline) Begin() error {
	p.calls = 0
	p.submitted = false
	params := &Params{Mode: ModeBegin}
	for _, s := range append(p.pre[:len(p.pre):len(p.pre)], p.post...) {
		err := s.Prepare(params)
		if err != nil {
			return errors.Wrap(err, "could not begin frame")
		}
	}
	return nil
}

// Execute processes one execute call of the current frame. Features are
// updated, then pre sub-pipelines run in order. Once the frame is complete
// the decode packet is activated, followed by the post sub-pipelines. All
// activated packets are executed before Execute returns.
func (p *Pipeline) Execute(d *DecodeParams) error {
	if d == nil {
		return errors.Wrap(status.ErrNullDependency, "nil decode params")
	}
	if p.submitted {
		return errors.Wrap(status.ErrInvalidParameter, "execute call after frame was submitted")
	}
	d.ExecuteCallIndex = p.calls
	p.calls++
	params := &Params{Mode: ModeProcess, Decode: d}

	err := p.features.Update(params)
	if err != nil {
		return err
	}

	for _, s := range p.pre {
		err = s.Prepare(params)
		if err != nil {
			return err
		}
	}

	if p.input == nil || p.input.IsComplete() {
		p.log.Debug("frame complete, activating decode packet", "executeCalls", p.calls)
		err = p.sched.ActivatePacket(packet.DecodeID, false, 0, 0)
		if err != nil {
			return err
		}
		for _, s := range p.post {
			err = s.Prepare(params)
			if err != nil {
				return err
			}
		}
		p.submitted = true
	}

	return p.sched.ExecuteActivePackets()
}

// Complete returns true once the decode packet of the current frame has been
// activated.
func (p *Pipeline) Complete() bool { return p.submitted }

// Close releases sub-pipeline and feature resources.
func (p *Pipeline) Close() error {
	var first error
	for _, s := range append(p.pre[:len(p.pre):len(p.pre)], p.post...) {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		err := c.Close()
		if err != nil && first == nil {
			first = err
		}
	}
	err := p.features.Close()
	if err != nil && first == nil {
		first = err
	}
	return first
}
