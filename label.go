package stagehand

import "fmt"

// ValueLabel renders a numeric value through a format template captured
// from its node's display text. The capture happens exactly once, at
// attach time; every later SetValue re-renders the node text by
// substituting the value into that template.
//
// Templates use fmt verbs, e.g. a node text of "Score: %.0f". The template
// is not validated; a malformed verb shows up in the rendered text at
// substitution time.
type ValueLabel struct {
	node   *Node
	format string
	value  float64
}

// AttachValueLabel captures node's current text as the format template
// and returns the label bound to it.
func AttachValueLabel(node *Node) *ValueLabel {
	return &ValueLabel{node: node, format: node.Text}
}

// SetValue re-renders the node text from the captured template and v.
func (l *ValueLabel) SetValue(v float64) {
	l.value = v
	l.node.Text = fmt.Sprintf(l.format, v)
}

// Value returns the last value assigned with SetValue.
func (l *ValueLabel) Value() float64 {
	return l.value
}

// Format returns the template captured at attach time.
func (l *ValueLabel) Format() string {
	return l.format
}

// Node returns the underlying node.
func (l *ValueLabel) Node() *Node {
	return l.node
}
