/*
DESCRIPTION
  lex.go provides a lexer that splits an MPEG-2 video elementary stream into
  coded pictures.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package mpeg2

import (
	"io"

	"github.com/ausocean/utils/logging"
)

// Start codes that begin a picture unit or end a sequence.
const (
	codeSequenceEnd = 0xb7
	codeGOP         = 0xb8
)

// Lex reads an MPEG-2 video elementary stream from src and writes each coded
// picture to dst as one write. Sequence and group of pictures headers are
// written with the picture that follows them. Data preceding the first
// header is discarded.
func Lex(log logging.Logger, dst io.Writer, src io.Reader) error {
	b, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	start := -1
	var inPicture bool
	var n int
	flush := func(end int) error {
		_, err := dst.Write(b[start:end])
		n++
		inPicture = false
		start = -1
		return err
	}

	for _, off := range startCodes(b) {
		switch code := b[off+3]; code {
		case codeSequence, codeGOP, codePicture:
			if inPicture {
				err = flush(off)
				if err != nil {
					return err
				}
			}
			if start < 0 {
				start = off
			}
			if code == codePicture {
				inPicture = true
			}
		case codeSequenceEnd:
			if inPicture {
				err = flush(off)
				if err != nil {
					return err
				}
			}
			start = -1
		}
	}
	if inPicture {
		err = flush(len(b))
		if err != nil {
			return err
		}
	}
	log.Debug("lexed mpeg2 stream", "pictures", n, "bytes", len(b))
	return nil
}
