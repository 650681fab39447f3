/*
DESCRIPTION
  lex.go provides ByteLexer, which splits a coded frame into the segments of
  successive execute calls.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package codecutil

import (
	"fmt"
	"io"
	"time"
)

// ByteLexer splits data into segments of a fixed size.
type ByteLexer struct {
	bufSize int
}

// NewByteLexer returns a ByteLexer producing segments of s bytes.
func NewByteLexer(s int) (*ByteLexer, error) {
	if s <= 0 {
		return nil, fmt.Errorf("invalid segment size: %v", s)
	}
	return &ByteLexer{bufSize: s}, nil
}

// zeroTicks can be used to create an instant ticker.
var zeroTicks chan time.Time

func init() {
	zeroTicks = make(chan time.Time)
	close(zeroTicks)
}

// Lex reads src to its end, writing each l.bufSize bytes to dst as one write
// no sooner than d after the previous write. The final write may be short.
// Lex returns nil once src is exhausted.
func (l *ByteLexer) Lex(dst io.Writer, src io.Reader, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid delay: %v", d)
	}

	var ticker *time.Ticker
	if d == 0 {
		ticker = &time.Ticker{C: zeroTicks}
	} else {
		ticker = time.NewTicker(d)
		defer ticker.Stop()
	}

	buf := make([]byte, l.bufSize)
	for {
		n, err := io.ReadFull(src, buf)
		switch err {
		case nil, io.ErrUnexpectedEOF:
		case io.EOF:
			return nil
		default:
			return err
		}
		<-ticker.C
		_, werr := dst.Write(buf[:n])
		if werr != nil {
			return werr
		}
		if err == io.ErrUnexpectedEOF {
			return nil
		}
	}
}
