// Package reader provides a buffered rune source with arbitrary lookahead
// and a single mark/reset point, tracking 1-based line and column numbers.
//
// A Reader is not safe for concurrent use.
package reader

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// EOF is returned by Read and Peek at the end of input
const EOF rune = -1

// DefaultBlockSize is the buffer growth increment in runes
const DefaultBlockSize = 1024

var (
	ErrClosed = errors.New("reader: use of closed reader")
	ErrNoMark = errors.New("reader: reset without mark")
)

// Reader buffers runes from an underlying source.
//
// buf[0:count] holds buffered runes, buf[pos] is the next rune Read returns.
// While a mark is held, buf[mark:] is never discarded.
type Reader struct {
	src       io.RuneReader
	closer    io.Closer
	buf       []rune
	pos       int
	count     int
	mark      int
	blockSize int
	eof       bool
	closed    bool

	line, column int
	afterCR      bool

	markLine, markColumn int
	markAfterCR          bool
}

// New creates a Reader over r with DefaultBlockSize
func New(r io.Reader) *Reader {
	return NewSize(r, DefaultBlockSize)
}

// NewSize creates a Reader over r that grows its buffer in multiples of
// blockSize runes. If r implements io.Closer, Close closes it.
func NewSize(r io.Reader, blockSize int) *Reader {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}
	c, _ := r.(io.Closer)
	return &Reader{
		src:       rr,
		closer:    c,
		buf:       make([]rune, blockSize),
		mark:      -1,
		blockSize: blockSize,
		line:      1,
		column:    1,
	}
}

// NewString creates a Reader over s
func NewString(s string) *Reader {
	return New(strings.NewReader(s))
}

// Line returns the line of the next rune to be read
func (r *Reader) Line() int {
	return r.line
}

// Column returns the column of the next rune to be read
func (r *Reader) Column() int {
	return r.column
}

// Read consumes and returns the next rune, or EOF
func (r *Reader) Read() (rune, error) {
	if r.closed {
		return EOF, ErrClosed
	}
	ok, err := r.fill(1)
	if err != nil {
		return EOF, err
	}
	if !ok {
		return EOF, nil
	}
	c := r.buf[r.pos]
	r.pos++
	r.advance(c)
	return c, nil
}

// Peek returns the rune offset positions ahead of the next one to be read
// (Peek(0) is what Read would return) without consuming anything.
func (r *Reader) Peek(offset int) (rune, error) {
	if r.closed {
		return EOF, ErrClosed
	}
	if offset < 0 {
		return EOF, errors.New("reader: negative peek offset")
	}
	ok, err := r.fill(offset + 1)
	if err != nil {
		return EOF, err
	}
	if !ok {
		return EOF, nil
	}
	return r.buf[r.pos+offset], nil
}

// Mark records the current position; a later Reset returns to it.
// A new Mark replaces the previous one.
func (r *Reader) Mark() error {
	if r.closed {
		return ErrClosed
	}
	r.mark = r.pos
	r.markLine, r.markColumn, r.markAfterCR = r.line, r.column, r.afterCR
	return nil
}

// Reset returns to the marked position and releases the mark
func (r *Reader) Reset() error {
	if r.closed {
		return ErrClosed
	}
	if r.mark < 0 {
		return ErrNoMark
	}
	r.pos = r.mark
	r.line, r.column, r.afterCR = r.markLine, r.markColumn, r.markAfterCR
	r.mark = -1
	return nil
}

// Close releases the buffer and closes the underlying source if it is
// an io.Closer. Later calls fail with ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.buf = nil
	r.src = nil
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// advance updates line and column after consuming c. A '\r', or a '\n'
// that does not follow a '\r', starts a new line.
func (r *Reader) advance(c rune) {
	switch {
	case c == '\r':
		r.line++
		r.column = 1
		r.afterCR = true
	case c == '\n':
		if !r.afterCR {
			r.line++
			r.column = 1
		}
		r.afterCR = false
	default:
		r.column++
		r.afterCR = false
	}
}

// fill makes at least need runes available from pos. It reports false when
// the source is exhausted first.
func (r *Reader) fill(need int) (bool, error) {
	if r.pos+need <= r.count {
		return true, nil
	}
	for r.count-r.pos < need {
		if r.eof {
			return false, nil
		}
		if r.count == len(r.buf) {
			r.makeRoom(need)
		}
		c, _, err := r.src.ReadRune()
		if err == io.EOF {
			r.eof = true
			continue
		}
		if err != nil {
			return false, err
		}
		r.buf[r.count] = c
		r.count++
	}
	return true, nil
}

// makeRoom is called with a full buffer. It discards consumed runes left of
// pos (or left of the mark while one is held), then grows the buffer to a
// multiple of blockSize if need runes still do not fit.
func (r *Reader) makeRoom(need int) {
	keep := r.pos
	if r.mark >= 0 && r.mark < keep {
		keep = r.mark
	}
	if keep > 0 {
		n := copy(r.buf, r.buf[keep:r.count])
		r.count = n
		r.pos -= keep
		if r.mark >= 0 {
			r.mark -= keep
		}
	}
	if required := r.pos + need; required > len(r.buf) {
		size := (required + r.blockSize - 1) / r.blockSize * r.blockSize
		grown := make([]rune, size)
		copy(grown, r.buf[:r.count])
		r.buf = grown
	}
}
