/*
DESCRIPTION
  bytescanner.go provides ByteScanner, a byte level scanner used to locate
  markers and start codes in coded frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package codecutil

import "io"

// ByteScanner is a byte scanner that tracks its offset into the source.
type ByteScanner struct {
	buf []byte
	off int

	// pos is the number of bytes consumed from the source.
	pos int

	// r is the source of data for the scanner.
	r io.Reader
}

// NewByteScanner returns a scanner reading r through buf.
func NewByteScanner(r io.Reader, buf []byte) *ByteScanner {
	return &ByteScanner{r: r, buf: buf[:0]}
}

// ScanUntil scans until a delim byte has been read, appending all read bytes
// to dst. It returns the appended data, the last read byte and any read error.
func (c *ByteScanner) ScanUntil(dst []byte, delim byte) (res []byte, b byte, err error) {
outer:
	for {
		var i int
		for i, b = range c.buf[c.off:] {
			if b != delim {
				continue
			}
			dst = append(dst, c.buf[c.off:c.off+i+1]...)
			c.off += i + 1
			c.pos += i + 1
			break outer
		}
		dst = append(dst, c.buf[c.off:]...)
		c.pos += len(c.buf) - c.off
		c.off = len(c.buf)
		err = c.reload()
		if err != nil {
			break
		}
	}
	return dst, b, err
}

// ReadByte implements io.ByteReader.
func (c *ByteScanner) ReadByte() (byte, error) {
	if c.off >= len(c.buf) {
		err := c.reload()
		if err != nil {
			return 0, err
		}
	}
	b := c.buf[c.off]
	c.off++
	c.pos++
	return b, nil
}

// Skip discards n bytes.
func (c *ByteScanner) Skip(n int) error {
	for ; n > 0; n-- {
		_, err := c.ReadByte()
		if err != nil {
			return err
		}
	}
	return nil
}

// Pos returns the number of bytes consumed from the source.
func (c *ByteScanner) Pos() int { return c.pos }

// reload re-fills the scanner's buffer.
func (c *ByteScanner) reload() error {
	n, err := c.r.Read(c.buf[:cap(c.buf)])
	c.buf = c.buf[:n]
	c.off = 0
	if err != nil {
		if err != io.EOF {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
	return nil
}
