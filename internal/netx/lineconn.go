// Package netx implements the newline-delimited framing shared by the server
// session loop, the transfer protocol and the protocol client.
//
// A LineConn carries UTF-8 lines terminated by '\n' and, for uploads, raw
// length-prefixed byte streams on the same connection. Reads honour optional
// per-call deadlines which are always cleared again before returning.
package netx

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultMaxLineLength bounds a single line. Chunk payload lines are the
// largest lines on the wire.
const DefaultMaxLineLength = 64 << 20

var ErrLineTooLong = errors.New("line too long")

type LineConn struct {
	conn    net.Conn
	r       *bufio.Reader
	wmu     sync.Mutex
	partial []byte
	maxLine int
}

func NewLineConn(conn net.Conn) *LineConn {
	return &LineConn{
		conn:    conn,
		r:       bufio.NewReaderSize(conn, 64<<10),
		maxLine: DefaultMaxLineLength,
	}
}

// SetMaxLineLength overrides the line length limit; n <= 0 disables it.
func (c *LineConn) SetMaxLineLength(n int) {
	c.maxLine = n
}

// ReadLine blocks until a full line is available and returns it without the
// trailing "\r\n" or "\n".
func (c *LineConn) ReadLine() (string, error) {
	for {
		frag, err := c.r.ReadSlice('\n')
		c.partial = append(c.partial, frag...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if c.maxLine > 0 && len(c.partial) > c.maxLine {
				c.partial = c.partial[:0]
				return "", ErrLineTooLong
			}
			continue
		}
		// Bytes read before a timeout stay buffered in c.partial and are
		// prepended to the next line.
		return "", err
	}

	line := strings.TrimRight(string(c.partial), "\r\n")
	c.partial = c.partial[:0]
	return line, nil
}

// ReadLineTimeout is ReadLine bounded by d. The read deadline is reset to
// "no deadline" before returning, whatever the outcome.
func (c *LineConn) ReadLineTimeout(d time.Duration) (string, error) {
	if d <= 0 {
		return c.ReadLine()
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return "", err
	}
	defer c.conn.SetReadDeadline(time.Time{})

	return c.ReadLine()
}

// ReadFull reads exactly n raw bytes following the last line.
func (c *LineConn) ReadFull(n int64) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("negative length")
	}
	buf := make([]byte, n)
	src := io.MultiReader(bytes.NewReader(c.partial), c.r)
	_, err := io.ReadFull(src, buf)
	c.partial = c.partial[:0]
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteLine writes s followed by '\n'. Safe for concurrent use.
func (c *LineConn) WriteLine(s string) error {
	return c.WriteLines(s)
}

// WriteLines writes every line in a single Write call.
func (c *LineConn) WriteLines(lines ...string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return c.WriteRaw([]byte(b.String()))
}

// WriteRaw writes b as-is.
func (c *LineConn) WriteRaw(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err := c.conn.Write(b)
	return err
}

func (c *LineConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *LineConn) Close() error {
	return c.conn.Close()
}

// IsTimeout reports whether err is a read/write deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
