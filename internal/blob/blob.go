// Package blob frames a serialized database for storage: a fixed header
// carrying magic, version, compression and a checksum, followed by the
// (possibly compressed) payload.
//
//	[magic u32][version u16][compression u8][reserved u8]
//	[raw length u64][stored length u64][crc32 u32][payload]
//
// All integers are little endian. The checksum covers the stored payload.
package blob

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/lestrrat-go/heliumdb/internal/pool"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

const (
	Magic   uint32 = 0x31424448 // "HDB1"
	Version uint16 = 1

	// an LZ4 block cannot expand its input by more than this
	maxLZ4Ratio = 255

	HeaderSize = 28

	// MaxPayload bounds the raw and stored lengths accepted by Read.
	MaxPayload = 1 << 30
)

var (
	ErrBadMagic           = errors.New("not a heliumdb blob")
	ErrUnsupportedVersion = errors.New("unsupported blob version")
	ErrChecksum           = errors.New("blob checksum mismatch")
	ErrCorrupt            = errors.New("corrupt blob")
)

// Compression selects how the payload is stored.
type Compression uint8

const (
	None Compression = iota
	LZ4
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a name as printed by String back to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	}
	return None, errors.Errorf("unknown compression %q", s)
}

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayload))
}

// compress returns the stored form of data and the compression actually
// used. Data that does not shrink is stored as is.
func compress(dst, data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case None:
		return data, None, nil
	case LZ4:
		dst = dst[:0]
		if n := lz4.CompressBlockBound(len(data)); cap(dst) < n {
			dst = make([]byte, n)
		} else {
			dst = dst[:n]
		}
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, None, errors.Wrap(err, "lz4")
		}
		if n == 0 || n >= len(data) {
			return data, None, nil
		}
		return dst[:n], LZ4, nil
	case Zstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, None, errors.Wrap(err, "zstd")
		}
		defer zstdEncoders.Put(enc)
		out := enc.EncodeAll(data, dst[:0])
		if len(out) >= len(data) {
			return data, None, nil
		}
		return out, Zstd, nil
	}
	return nil, None, errors.Errorf("unknown compression %d", c)
}

// Write frames data and writes it to w.
func Write(w io.Writer, data []byte, c Compression) (int64, error) {
	bs := pool.ByteSlice()
	buf := bs.GetCapacity(len(data))
	defer bs.Put(buf)

	stored, used, err := compress(buf, data, c)
	if err != nil {
		return 0, err
	}

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], Magic)
	binary.LittleEndian.PutUint16(hdr[4:], Version)
	hdr[6] = byte(used)
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(data)))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(len(stored)))
	binary.LittleEndian.PutUint32(hdr[24:], crc32.ChecksumIEEE(stored))

	n, err := w.Write(hdr[:])
	written := int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(stored)
	written += int64(n)
	return written, err
}

// Header describes a framed payload.
type Header struct {
	Version     uint16
	Compression Compression
	RawSize     uint64
	StoredSize  uint64
	Checksum    uint32
}

// ReadHeader reads and validates the fixed size header.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, errors.Wrap(ErrCorrupt, "short header")
		}
		return Header{}, err
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != Magic {
		return Header{}, ErrBadMagic
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(hdr[4:]),
		Compression: Compression(hdr[6]),
		RawSize:     binary.LittleEndian.Uint64(hdr[8:]),
		StoredSize:  binary.LittleEndian.Uint64(hdr[16:]),
		Checksum:    binary.LittleEndian.Uint32(hdr[24:]),
	}
	if h.Version != Version {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", h.Version)
	}
	if h.Compression > Zstd || hdr[7] != 0 {
		return Header{}, errors.Wrapf(ErrCorrupt, "compression %d", hdr[6])
	}
	if h.RawSize > MaxPayload || h.StoredSize > MaxPayload {
		return Header{}, errors.Wrap(ErrCorrupt, "payload too large")
	}
	if h.Compression == None && h.RawSize != h.StoredSize {
		return Header{}, errors.Wrap(ErrCorrupt, "length mismatch")
	}
	return h, nil
}

// Read reads a framed payload from r and returns it decompressed.
func Read(r io.Reader) ([]byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// the header sizes are not trusted for allocation; the buffer grows
	// with what is actually read
	bs := pool.ByteSlice()
	buf := bytes.NewBuffer(bs.Get())
	if _, err := buf.ReadFrom(io.LimitReader(r, int64(h.StoredSize))); err != nil {
		return nil, err
	}
	stored := buf.Bytes()
	if uint64(len(stored)) != h.StoredSize {
		bs.Put(stored)
		return nil, errors.Wrap(ErrCorrupt, "short payload")
	}
	if crc32.ChecksumIEEE(stored) != h.Checksum {
		bs.Put(stored)
		return nil, ErrChecksum
	}
	if h.Compression == None {
		return stored, nil
	}
	defer bs.Put(stored)

	switch h.Compression {
	case LZ4:
		if h.RawSize > uint64(len(stored))*maxLZ4Ratio {
			return nil, errors.Wrap(ErrCorrupt, "lz4 payload size")
		}
		data := make([]byte, h.RawSize)
		n, err := lz4.UncompressBlock(stored, data)
		if err != nil || uint64(n) != h.RawSize {
			return nil, errors.Wrap(ErrCorrupt, "lz4 payload")
		}
		return data, nil
	default:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		defer zstdDecoders.Put(dec)
		data, err := dec.DecodeAll(stored, nil)
		if err != nil || uint64(len(data)) != h.RawSize {
			return nil, errors.Wrap(ErrCorrupt, "zstd payload")
		}
		return data, nil
	}
}
