/*
DESCRIPTION
  hwdec replays a coded video file through a decode session, delivering
  each frame over one or more execute calls, and writes the frame data
  consumed by each decode packet to a file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// hwdec replays coded VP9, JPEG or MPEG-2 video through a decode session.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/hwdec/codec/codecutil"
	"github.com/ausocean/hwdec/config"
)

const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "/var/log/hwdec/hwdec.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const pkg = "hwdec: "

func main() {
	var (
		showVersion  = flag.Bool("version", false, "show version")
		codecPtr     = flag.String("codec", codecutil.VP9, "codec of the input: vp9 (IVF), jpeg (concatenated images) or mpeg2 (elementary stream)")
		inPtr        = flag.String("in", "", "path of the coded input")
		outPtr       = flag.String("out", "", "path to write decoded frame data to")
		segmentPtr   = flag.Uint("segment", 0, "bytes delivered per execute call, 0 for whole frames")
		hucPtr       = flag.Bool("huc", false, "update vp9 probabilities with the HuC packet")
		postPtr      = flag.Bool("post", false, "commit vp9 probabilities after decode")
		deferPtr     = flag.Bool("deferred", false, "submit bitstream copies with the decode packet")
		logPtr       = flag.String("log", logPath, "path of the log file")
		verbosityPtr = flag.String("verbosity", "Info", "log verbosity: Debug, Info, Warning, Error or Fatal")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPtr,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	// Create logger that we call methods on to log, which in turn writes to the
	// lumberjack logger and stderr.
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting hwdec", "version", version)

	submit := "immediate"
	if *deferPtr {
		submit = "deferred"
	}
	cfg := config.Config{Logger: log}
	cfg.Update(map[string]string{
		config.KeyCodec:          *codecPtr,
		config.KeyInputPath:      *inPtr,
		config.KeyOutputPath:     *outPtr,
		config.KeySegmentSize:    fmt.Sprint(*segmentPtr),
		config.KeyHuCProbUpdate:  fmt.Sprint(*hucPtr),
		config.KeyPostProbCommit: fmt.Sprint(*postPtr),
		config.KeySubmit:         submit,
		config.KeyLogging:        *verbosityPtr,
	})
	cfg.Validate()
	log.SetLevel(cfg.LogLevel)

	in, err := os.Open(cfg.InputPath)
	if err != nil {
		log.Fatal(pkg+"could not open input", "error", err.Error())
	}
	defer in.Close()

	var out io.Writer = io.Discard
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			log.Fatal(pkg+"could not create output", "error", err.Error())
		}
		defer f.Close()
		out = f
	}

	n, err := replay(cfg, in, out)
	if err != nil {
		log.Fatal(pkg+"replay failed", "error", err.Error(), "frames", n)
	}
	log.Info("replay complete", "frames", n)
}
