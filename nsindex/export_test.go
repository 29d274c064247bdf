package nsindex

func (s *Session) Level() int {
	return s.level
}

func (s *Session) Cursor() Handle {
	return s.cursor
}
