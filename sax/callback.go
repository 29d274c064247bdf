package sax

import (
	"context"
	"errors"
)

// ErrHandlerUnspecified is returned when no callback is registered for
// an event. It is not fatal; tokenizers skip the event.
var ErrHandlerUnspecified = errors.New("handler unspecified")

type StartDocumentFunc func(ctx context.Context) error
type EndDocumentFunc func(ctx context.Context) error
type StartElementNSFunc func(ctx context.Context, localname, prefix string, namespaces []Namespace, attrs []Attribute) error
type EndElementNSFunc func(ctx context.Context, localname, prefix string) error
type CharactersFunc func(ctx context.Context, ch []byte) error
type CDataBlockFunc func(ctx context.Context, value []byte) error
type CommentFunc func(ctx context.Context, value []byte) error
type ProcessingInstructionFunc func(ctx context.Context, target, data string) error
