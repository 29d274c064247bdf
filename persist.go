package heliumdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lestrrat-go/heliumdb/internal/blob"
	"github.com/lestrrat-go/heliumdb/internal/wire"
	"github.com/lestrrat-go/heliumdb/node"
	"github.com/lestrrat-go/heliumdb/nsindex"
	"github.com/pkg/errors"
)

// Flush writes the database to w: the node table followed by the
// namespace index, framed and optionally compressed.
func (d *DB) Flush(ctx context.Context, w io.Writer, options ...FlushOption) (int64, error) {
	ctx, span := StartSpan(d.context(ctx), "DB.Flush")
	defer span.End()

	compression := CompressionNone
	for _, option := range options {
		switch option.Ident() {
		case identCompression{}:
			compression = option.Value().(Compression)
		}
	}

	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	d.mu.RLock()
	d.tbl.Encode(enc)
	d.ns.Encode(enc)
	d.mu.RUnlock()
	if err := enc.Err(); err != nil {
		return 0, err
	}

	n, err := blob.Write(w, buf.Bytes(), compression)
	if err != nil {
		return n, err
	}
	TraceEvent(ctx, "flushed",
		slog.Int("raw", buf.Len()),
		slog.Int64("written", n),
		slog.String("compression", compression.String()),
	)
	return n, nil
}

func isBlobCorruption(err error) bool {
	return errors.Is(err, blob.ErrCorrupt) ||
		errors.Is(err, blob.ErrBadMagic) ||
		errors.Is(err, blob.ErrChecksum) ||
		errors.Is(err, blob.ErrUnsupportedVersion)
}

// Open reads a database written by Flush. Damaged input is reported as
// ErrCorruptData, or as ErrCorruptNamespaceData if only the namespace
// part is inconsistent.
func Open(ctx context.Context, r io.Reader, options ...DBOption) (*DB, error) {
	d := New(options...)
	ctx, span := StartSpan(d.context(ctx), "Open")
	defer span.End()

	data, err := blob.Read(r)
	if err != nil {
		if isBlobCorruption(err) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return nil, err
	}

	br := bytes.NewReader(data)
	dec := wire.NewDecoder(br)
	tbl, err := node.DecodeTable(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	ns, err := nsindex.Decode(dec)
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, errors.Wrapf(ErrCorruptData, "%d trailing bytes", br.Len())
	}
	if err := ns.CheckStructure(tbl, tbl.Len()); err != nil {
		return nil, err
	}
	for pre := 0; pre < tbl.Len(); pre++ {
		if id := tbl.URIID(pre); id < 0 || id > ns.Size() {
			return nil, errors.Wrapf(ErrCorruptNamespaceData, "namespace id %d of node %d", id, pre)
		}
	}

	d.tbl = tbl
	d.ns = ns
	TraceEvent(ctx, "opened", slog.Int("nodes", tbl.Len()), slog.Int("uris", ns.Size()))
	return d, nil
}
