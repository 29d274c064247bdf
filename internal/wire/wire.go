// Package wire implements the varint based binary encoding shared by the
// persisted structures. Encoder and Decoder keep the first error they hit;
// subsequent calls are no-ops, so callers check Err once at the end.
package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// MaxCount bounds element counts and byte lengths read from a stream.
const MaxCount = 1 << 26

const smallBytes = 4096

var ErrTooLarge = errors.New("encoded length exceeds limit")

type Encoder struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	n   int64
	err error
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(b)
	e.n += int64(n)
	e.err = err
}

func (e *Encoder) Uvarint(v uint64) {
	n := binary.PutUvarint(e.buf[:], v)
	e.write(e.buf[:n])
}

func (e *Encoder) Varint(v int64) {
	n := binary.PutVarint(e.buf[:], v)
	e.write(e.buf[:n])
}

// Count writes a non-negative length or count.
func (e *Encoder) Count(n int) {
	e.Uvarint(uint64(n))
}

func (e *Encoder) Int(v int) {
	e.Varint(int64(v))
}

// Bytes writes a length prefixed byte string.
func (e *Encoder) Bytes(b []byte) {
	e.Count(len(b))
	e.write(b)
}

func (e *Encoder) String(s string) {
	e.Count(len(s))
	if e.err != nil {
		return
	}
	n, err := io.WriteString(e.w, s)
	e.n += int64(n)
	e.err = err
}

// Written returns the number of bytes written so far.
func (e *Encoder) Written() int64 {
	return e.n
}

func (e *Encoder) Err() error {
	return e.err
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

type Decoder struct {
	r   byteReader
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.err = err
	}
}

func (d *Decoder) Uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		d.fail(err)
		return 0
	}
	return v
}

func (d *Decoder) Varint() int64 {
	if d.err != nil {
		return 0
	}
	v, err := binary.ReadVarint(d.r)
	if err != nil {
		d.fail(err)
		return 0
	}
	return v
}

// Count reads a length or count written by Encoder.Count.
func (d *Decoder) Count() int {
	v := d.Uvarint()
	if v > MaxCount {
		d.fail(ErrTooLarge)
		return 0
	}
	return int(v)
}

func (d *Decoder) Int() int {
	return int(d.Varint())
}

func (d *Decoder) Bytes() []byte {
	n := d.Count()
	if d.err != nil {
		return nil
	}
	if n <= smallBytes {
		b := make([]byte, n)
		if _, err := io.ReadFull(d.r, b); err != nil {
			d.fail(err)
			return nil
		}
		return b
	}

	// a long length may be a lie; grow with the data actually there
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, d.r, int64(n)); err != nil {
		d.fail(err)
		return nil
	}
	return buf.Bytes()
}

func (d *Decoder) String() string {
	return string(d.Bytes())
}

func (d *Decoder) Err() error {
	return d.err
}
