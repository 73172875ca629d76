package stagehand

import "testing"

func TestValueLabel_RendersTemplate(t *testing.T) {
	node := NewLabel("score", "Score: %.0f")
	label := AttachValueLabel(node)

	label.SetValue(10)
	if node.Text != "Score: 10" {
		t.Errorf("expected %q, got %q", "Score: 10", node.Text)
	}

	label.SetValue(2500)
	if node.Text != "Score: 2500" {
		t.Errorf("expected %q, got %q", "Score: 2500", node.Text)
	}
	if label.Value() != 2500 {
		t.Errorf("expected value 2500, got %v", label.Value())
	}
}

func TestValueLabel_CapturesTemplateOnce(t *testing.T) {
	node := NewLabel("hp", "HP %.1f")
	label := AttachValueLabel(node)

	// The template is fixed at attach time; rendering does not re-read
	// the node text.
	label.SetValue(7)
	label.SetValue(3.5)
	if node.Text != "HP 3.5" {
		t.Errorf("expected %q, got %q", "HP 3.5", node.Text)
	}
	if label.Format() != "HP %.1f" {
		t.Errorf("template changed after attach: %q", label.Format())
	}
}

func TestValueLabel_MalformedTemplate(t *testing.T) {
	node := NewLabel("bad", "count: %d")
	label := AttachValueLabel(node)

	// %d with a float64 is a bad verb; fmt reports it in the output
	// rather than failing.
	label.SetValue(5)
	if node.Text == "count: 5" {
		t.Error("expected a bad-verb marker in the rendered text")
	}
}

func TestValueLabel_NoVerbTemplate(t *testing.T) {
	node := NewLabel("static", "Paused")
	label := AttachValueLabel(node)

	label.SetValue(1)
	// fmt appends an extra-arg marker; the original text survives as the
	// prefix.
	if len(node.Text) < len("Paused") || node.Text[:6] != "Paused" {
		t.Errorf("expected text to keep the template prefix, got %q", node.Text)
	}
}
