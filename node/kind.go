package node

// Kind identifies what a row of a Table represents.
type Kind int

const (
	DocumentNode Kind = iota + 1
	ElementNode
	AttributeNode
	TextNode
	CommentNode
	ProcessingInstructionNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case ProcessingInstructionNode:
		return "processing-instruction"
	}
	return "invalid"
}

func (k Kind) Valid() bool {
	return k >= DocumentNode && k <= ProcessingInstructionNode
}
