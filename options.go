package heliumdb

import (
	"log/slog"

	"github.com/lestrrat-go/heliumdb/internal/blob"
	"github.com/lestrrat-go/option"
)

type Option = option.Interface

type identLogger struct{}
type identStripWhitespace struct{}
type identCharset struct{}
type identCompression struct{}
type identOutputEncoding struct{}

// Compression selects how Flush stores the database.
type Compression = blob.Compression

const (
	CompressionNone = blob.None
	CompressionLZ4  = blob.LZ4
	CompressionZstd = blob.Zstd
)

// ParseCompression accepts the names "none", "lz4" and "zstd".
func ParseCompression(s string) (Compression, error) {
	return blob.ParseCompression(s)
}

type DBOption interface {
	Option
	dbOption()
}

type dbOption struct{ Option }

func (*dbOption) dbOption() {}

type ParseOption interface {
	Option
	parseOption()
}

type parseOption struct{ Option }

func (*parseOption) parseOption() {}

type FlushOption interface {
	Option
	flushOption()
}

type flushOption struct{ Option }

func (*flushOption) flushOption() {}

type SerializeOption interface {
	Option
	serializeOption()
}

type serializeOption struct{ Option }

func (*serializeOption) serializeOption() {}

// WithLogger sets the logger used to trace operations whose context
// carries no trace logger of its own.
func WithLogger(v *slog.Logger) DBOption {
	return &dbOption{option.New(identLogger{}, v)}
}

// WithStripWhitespace drops text nodes that consist of whitespace only.
func WithStripWhitespace(v bool) ParseOption {
	return &parseOption{option.New(identStripWhitespace{}, v)}
}

// WithCharset forces the charset of the input, overriding the XML
// declaration.
func WithCharset(v string) ParseOption {
	return &parseOption{option.New(identCharset{}, v)}
}

// WithCompression specifies how Flush compresses its output.
func WithCompression(v Compression) FlushOption {
	return &flushOption{option.New(identCompression{}, v)}
}

// WithOutputEncoding specifies the charset Serialize writes in.
func WithOutputEncoding(v string) SerializeOption {
	return &serializeOption{option.New(identOutputEncoding{}, v)}
}
