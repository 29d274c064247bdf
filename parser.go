package heliumdb

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"

	"github.com/lestrrat-go/heliumdb/encoding"
	"github.com/lestrrat-go/heliumdb/internal/stack"
	"github.com/lestrrat-go/heliumdb/sax"
	"github.com/pkg/errors"
)

// NewParser creates a parser configured by options.
func NewParser(options ...ParseOption) *Parser {
	p := &Parser{}
	for _, option := range options {
		switch option.Ident() {
		case identStripWhitespace{}:
			p.strip = option.Value().(bool)
		case identCharset{}:
			p.charset = option.Value().(string)
		}
	}
	return p
}

// ParseFragment parses XML into a Fragment. The input may hold any number
// of top level nodes; whitespace between them is dropped.
func ParseFragment(ctx context.Context, r io.Reader, options ...ParseOption) (*Fragment, error) {
	p := NewParser(options...)
	b := newBuilder(p.strip)
	if err := p.Parse(ctx, r, b); err != nil {
		return nil, err
	}
	return b.frag, nil
}

func handled(err error) error {
	if errors.Is(err, sax.ErrHandlerUnspecified) {
		return nil
	}
	return err
}

// Parse reads XML from r and reports it to h. Prefixes are passed on
// unresolved. Document type declarations are skipped.
func (p *Parser) Parse(ctx context.Context, r io.Reader, h sax.Handler) error {
	ctx, span := StartSpan(ctx, "Parser.Parse")
	defer span.End()

	dec, err := p.decoder(r)
	if err != nil {
		return err
	}

	if err := handled(h.StartDocument(ctx)); err != nil {
		return err
	}

	var open stack.Stack[xml.Name]
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.parseError(ctx, dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			namespaces, attrs, err := splitAttributes(t.Attr)
			if err != nil {
				return p.parseError(ctx, dec, err)
			}
			open.Push(t.Name)
			err = h.StartElementNS(ctx, t.Name.Local, t.Name.Space, namespaces, attrs)
			if err := handled(err); err != nil {
				return err
			}
		case xml.EndElement:
			top, ok := open.Top()
			if !ok || top != t.Name {
				return p.parseError(ctx, dec, fmt.Errorf("unexpected end element </%s>", qname(t.Name.Space, t.Name.Local)))
			}
			open.Pop()
			if err := handled(h.EndElementNS(ctx, t.Name.Local, t.Name.Space)); err != nil {
				return err
			}
		case xml.CharData:
			if err := handled(h.Characters(ctx, bytes.Clone(t))); err != nil {
				return err
			}
		case xml.Comment:
			if err := handled(h.Comment(ctx, bytes.Clone(t))); err != nil {
				return err
			}
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			if err := handled(h.ProcessingInstruction(ctx, t.Target, string(t.Inst))); err != nil {
				return err
			}
		}
	}

	if top, ok := open.Top(); ok {
		return p.parseError(ctx, dec, fmt.Errorf("unexpected EOF: <%s> is not closed", qname(top.Space, top.Local)))
	}
	return handled(h.EndDocument(ctx))
}

func (p *Parser) decoder(r io.Reader) (*xml.Decoder, error) {
	if p.charset == "" {
		dec := xml.NewDecoder(r)
		dec.CharsetReader = encoding.CharsetReader
		return dec, nil
	}

	cr, err := encoding.CharsetReader(p.charset, r)
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(cr)
	// the input is converted already, whatever the declaration says
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) {
		return in, nil
	}
	return dec, nil
}

func (p *Parser) parseError(ctx context.Context, dec *xml.Decoder, err error) error {
	line, col := dec.InputPos()
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		line = se.Line
	}
	perr := ErrParseError{Err: err, LineNumber: line, Column: col}
	TraceError(ctx, err, "parse error", slog.Int("line", line), slog.Int("column", col))
	return perr
}

// splitAttributes separates namespace declarations from attributes.
func splitAttributes(list []xml.Attr) ([]sax.Namespace, []sax.Attribute, error) {
	var namespaces []sax.Namespace
	var attrs []sax.Attribute
	seen := make(map[xml.Name]struct{}, len(list))
	for _, a := range list {
		if _, ok := seen[a.Name]; ok {
			return nil, nil, fmt.Errorf("duplicate attribute %s", qname(a.Name.Space, a.Name.Local))
		}
		seen[a.Name] = struct{}{}

		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			namespaces = append(namespaces, sax.Namespace{URI: a.Value})
		case a.Name.Space == "xmlns":
			switch {
			case a.Name.Local == "xmlns":
				return nil, nil, errors.New("the xmlns prefix cannot be declared")
			case a.Name.Local == "xml" && a.Value != XMLNamespace:
				return nil, nil, errors.New("the xml prefix cannot be rebound")
			case a.Name.Local == "xml":
				continue
			}
			namespaces = append(namespaces, sax.Namespace{Prefix: a.Name.Local, URI: a.Value})
		default:
			attrs = append(attrs, sax.Attribute{Prefix: a.Name.Space, LocalName: a.Name.Local, Value: a.Value})
		}
	}
	return namespaces, attrs, nil
}
