package formfield

// Text is a plain single-line or multi-line text field
type Text struct {
	Base
}

func NewText() *Text {
	return &Text{Base{Name: "text"}}
}
