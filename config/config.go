/*
DESCRIPTION
  config.go contains the configuration settings of a decode session and
  the hwdec command.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package config contains the configuration settings for hwdec.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Submit selects when bitstream copies are submitted.
type Submit uint8

// Submit modes.
const (
	SubmitUnset Submit = iota

	// Copies are executed as each execute call queues them.
	SubmitImmediate

	// Copies are executed with the decode packet.
	SubmitDeferred
)

// Config provides parameters relevant to a decode session. A new config must
// be passed to the decoder constructor. Default values for these fields are
// defined as consts in variables.go.
type Config struct {
	// Logger holds an implementation of the Logger interface as defined in
	// github.com/ausocean/utils/logging. This must be set for the session to
	// work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logging package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.

	// Codec is the codec standard of the coded frames, as named by
	// codecutil. Only standards with a decode pipeline are valid.
	Codec string

	// HuCProbUpdate hands VP9 probability buffer updates to the HuC packet
	// rather than applying them on the CPU.
	HuCProbUpdate bool

	// PostProbCommit writes VP9 inter probability defaults and the frame
	// status after the decode packet rather than before it.
	PostProbCommit bool

	Submit Submit // When bitstream copies are submitted.

	// SegmentSize is the number of bytes of a frame delivered by each
	// execute call. Zero delivers whole frames.
	SegmentSize uint

	InputPath  string // Path of the coded frames to replay.
	OutputPath string // Path the decode packet writes frame data to.

	PoolCapacity         uint // The number of bytes the pool buffer will occupy.
	PoolStartElementSize uint // The starting element size of the pool buffer from which element size will increase to accomodate frames.
	PoolWriteTimeout     uint // The pool buffer write timeout in seconds.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
