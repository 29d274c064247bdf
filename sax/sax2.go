package sax

import "context"

// SAX2 is a Handler built from optional callbacks.
type SAX2 struct {
	StartDocumentHandler         StartDocumentFunc
	EndDocumentHandler           EndDocumentFunc
	StartElementNSHandler        StartElementNSFunc
	EndElementNSHandler          EndElementNSFunc
	CharactersHandler            CharactersFunc
	CDataBlockHandler            CDataBlockFunc
	CommentHandler               CommentFunc
	ProcessingInstructionHandler ProcessingInstructionFunc
}

// New creates a new instance of SAX2. All callbacks are uninitialized.
func New() *SAX2 {
	return &SAX2{}
}

func (s *SAX2) StartDocument(ctx context.Context) error {
	if h := s.StartDocumentHandler; h != nil {
		return h(ctx)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) EndDocument(ctx context.Context) error {
	if h := s.EndDocumentHandler; h != nil {
		return h(ctx)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) StartElementNS(ctx context.Context, localname, prefix string, namespaces []Namespace, attrs []Attribute) error {
	if h := s.StartElementNSHandler; h != nil {
		return h(ctx, localname, prefix, namespaces, attrs)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) EndElementNS(ctx context.Context, localname, prefix string) error {
	if h := s.EndElementNSHandler; h != nil {
		return h(ctx, localname, prefix)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) Characters(ctx context.Context, ch []byte) error {
	if h := s.CharactersHandler; h != nil {
		return h(ctx, ch)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) CDataBlock(ctx context.Context, value []byte) error {
	if h := s.CDataBlockHandler; h != nil {
		return h(ctx, value)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) Comment(ctx context.Context, value []byte) error {
	if h := s.CommentHandler; h != nil {
		return h(ctx, value)
	}
	return ErrHandlerUnspecified
}

func (s *SAX2) ProcessingInstruction(ctx context.Context, target, data string) error {
	if h := s.ProcessingInstructionHandler; h != nil {
		return h(ctx, target, data)
	}
	return ErrHandlerUnspecified
}
