/*
DESCRIPTION
  lex.go provides Lex, which splits a stream of concatenated JPEG images
  into one write per image.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package jpeg

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/utils/logging"
)

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// Lex reads JPEG images from src, writing each complete image to dst as one
// write no sooner than delay after the previous write. Images nested in
// application segments are kept within their enclosing image. Lex returns nil
// when src ends on an image boundary.
func Lex(log logging.Logger, dst io.Writer, src io.Reader, delay time.Duration) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	r := bufio.NewReader(src)
	for {
		buf := make([]byte, 2, 4<<10)
		_, err := io.ReadFull(r, buf)
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
		if buf[0] != 0xff || buf[1] != codeSOI {
			return fmt.Errorf("not JPEG image start: %#v", buf)
		}

		depth := 1
		var last byte
		for depth > 0 {
			b, err := r.ReadByte()
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			if err != nil {
				return err
			}
			buf = append(buf, b)
			if last == 0xff {
				switch b {
				case codeSOI:
					depth++
				case codeEOI:
					depth--
				}
			}
			last = b
		}

		<-tick
		log.Debug("writing image", "len", len(buf))
		_, err = dst.Write(buf)
		if err != nil {
			return err
		}
	}
}
