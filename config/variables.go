/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hwdec/codec/codecutil"
)

// Config map Keys.
const (
	KeyCodec                = "Codec"
	KeyHuCProbUpdate        = "HuCProbUpdate"
	KeyInputPath            = "InputPath"
	KeyLogging              = "logging"
	KeyOutputPath           = "OutputPath"
	KeyPoolCapacity         = "PoolCapacity"
	KeyPoolStartElementSize = "PoolStartElementSize"
	KeyPoolWriteTimeout     = "PoolWriteTimeout"
	KeyPostProbCommit       = "PostProbCommit"
	KeySegmentSize          = "SegmentSize"
	KeySubmit               = "Submit"
	KeySuppress             = "Suppress"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultCodec     = codecutil.VP9
	defaultVerbosity = logging.Error
	defaultSubmit    = SubmitImmediate

	// Pool buffer defaults.
	defaultPoolCapacity         = 50000000 // => 50MB
	defaultPoolStartElementSize = 100000   // bytes
	defaultPoolWriteTimeout     = 5        // Seconds.
)

// Variables describes the variables that can be used for hwdec control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyCodec,
		Type:   "enum:vp9,jpeg,mpeg2",
		Update: func(c *Config, v string) { c.Codec = strings.ToLower(v) },
		Validate: func(c *Config) {
			if !codecutil.IsValid(c.Codec) || !codecutil.Decodable(c.Codec) {
				c.LogInvalidField(KeyCodec, defaultCodec)
				c.Codec = defaultCodec
			}
		},
	},
	{
		Name:   KeyHuCProbUpdate,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.HuCProbUpdate = parseBool(KeyHuCProbUpdate, v, c) },
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name:   KeyPoolCapacity,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolCapacity = parseUint(KeyPoolCapacity, v, c) },
		Validate: func(c *Config) {
			c.PoolCapacity = lessThanOrEqual(KeyPoolCapacity, c.PoolCapacity, 0, c, defaultPoolCapacity)
		},
	},
	{
		Name:   KeyPoolStartElementSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolStartElementSize = parseUint(KeyPoolStartElementSize, v, c) },
		Validate: func(c *Config) {
			c.PoolStartElementSize = lessThanOrEqual(KeyPoolStartElementSize, c.PoolStartElementSize, 0, c, defaultPoolStartElementSize)
		},
	},
	{
		Name:   KeyPoolWriteTimeout,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.PoolWriteTimeout = parseUint(KeyPoolWriteTimeout, v, c) },
		Validate: func(c *Config) {
			c.PoolWriteTimeout = lessThanOrEqual(KeyPoolWriteTimeout, c.PoolWriteTimeout, 0, c, defaultPoolWriteTimeout)
		},
	},
	{
		Name:   KeyPostProbCommit,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.PostProbCommit = parseBool(KeyPostProbCommit, v, c) },
	},
	{
		Name:   KeySegmentSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SegmentSize = parseUint(KeySegmentSize, v, c) },
	},
	{
		Name: KeySubmit,
		Type: "enum:immediate,deferred",
		Update: func(c *Config, v string) {
			c.Submit = Submit(parseEnum(
				KeySubmit,
				v,
				map[string]uint8{
					"immediate": uint8(SubmitImmediate),
					"deferred":  uint8(SubmitDeferred),
				},
				c,
			))
		},
		Validate: func(c *Config) {
			switch c.Submit {
			case SubmitImmediate, SubmitDeferred:
			default:
				c.LogInvalidField(KeySubmit, defaultSubmit)
				c.Submit = defaultSubmit
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
