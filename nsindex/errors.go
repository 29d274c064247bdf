package nsindex

import "errors"

// ErrCorruptNamespaceData is returned when persisted namespace data refers
// to anchors or ids outside of their valid ranges. The document owning the
// data cannot be opened.
var ErrCorruptNamespaceData = errors.New("corrupt namespace data")
