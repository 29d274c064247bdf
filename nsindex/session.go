package nsindex

// Session carries the mutable state needed while nodes are fed to an
// Index in document order: the current namespace node and, per nesting
// level, the default namespace in effect. A Session is obtained from
// Index.Session for a fresh build, or from Index.Root to replay nodes
// inserted into an existing document, and is dropped afterwards.
type Session struct {
	ix       *Index
	cursor   Handle
	level    int
	defaults []int
}

func newSession(ix *Index, cursor Handle) *Session {
	return &Session{
		ix:       ix,
		cursor:   cursor,
		level:    1,
		defaults: make([]int, 2, 16),
	}
}

// Session starts a construction session positioned at the root.
func (ix *Index) Session() *Session {
	return newSession(ix, rootHandle)
}

// Open enters an element that declares no namespaces. The element
// inherits the default namespace of its parent.
func (s *Session) Open() {
	uri := s.defaults[s.level]
	s.level++
	if s.level < len(s.defaults) {
		s.defaults[s.level] = uri
	} else {
		s.defaults = append(s.defaults, uri)
	}
}

// OpenNS enters the element at pre and records its declarations. A
// namespace node is only created if decls is not empty.
func (s *Session) OpenNS(pre int, decls []Decl) {
	s.Open()
	if len(decls) == 0 {
		return
	}

	ix := s.ix
	h := ix.alloc(pre)
	ix.attach(s.cursor, h)
	s.cursor = h
	for _, d := range decls {
		pid := ix.prefixes.Put(d.Prefix)
		uid := ix.uris.Put(d.URI)
		ix.nodes[h].bind(pid, uid)
		if d.Prefix == "" {
			s.defaults[s.level] = uid
		}
	}
}

// Close leaves the element at pre.
func (s *Session) Close(pre int) {
	nodes := s.ix.nodes
	for nodes[s.cursor].anchor >= pre {
		p := nodes[s.cursor].parent
		if p == noHandle {
			break
		}
		s.cursor = p
	}
	if s.level > 1 {
		s.level--
	}
}

// URIIDForPrefix resolves prefix for the node the session currently
// stands on. Attributes never pick up the default namespace, so the empty
// prefix only resolves for elements.
func (s *Session) URIIDForPrefix(prefix string, element bool) int {
	if s.ix.uris.IsEmpty() {
		return 0
	}
	if prefix == "" {
		if element {
			return s.defaults[s.level]
		}
		return 0
	}
	return s.ix.lookup(prefix, s.cursor)
}

// DeleteURI removes the bindings of uri from the current namespace node.
// The URI stays interned.
func (s *Session) DeleteURI(uri string) {
	if id := s.ix.uris.Index(uri); id != 0 {
		s.ix.nodes[s.cursor].unbindURI(id)
	}
}
