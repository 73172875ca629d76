package stagehand

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestComputeLocalTransform_Identity(t *testing.T) {
	n := NewContainer("n")
	m := computeLocalTransform(n)
	if m != identityTransform {
		t.Errorf("expected identity, got %v", m)
	}
}

func TestComputeLocalTransform_Translate(t *testing.T) {
	n := NewContainer("n")
	n.SetPosition(10, 20)
	m := computeLocalTransform(n)
	x, y := transformPoint(m, 0, 0)
	if !almostEqual(x, 10) || !almostEqual(y, 20) {
		t.Errorf("expected (10, 20), got (%v, %v)", x, y)
	}
}

func TestComputeLocalTransform_ScaleRotate(t *testing.T) {
	n := NewContainer("n")
	n.SetScale(2, 2)
	n.SetRotation(math.Pi / 2)
	m := computeLocalTransform(n)

	// (1, 0) scaled to (2, 0), rotated 90° clockwise-screen to (0, 2).
	x, y := transformPoint(m, 1, 0)
	if !almostEqual(x, 0) || !almostEqual(y, 2) {
		t.Errorf("expected (0, 2), got (%v, %v)", x, y)
	}
}

func TestInvertAffine_RoundTrip(t *testing.T) {
	n := NewContainer("n")
	n.SetPosition(15, -7)
	n.SetScale(3, 0.5)
	n.SetRotation(0.3)
	m := computeLocalTransform(n)
	inv := invertAffine(m)

	x, y := transformPoint(m, 12, 34)
	rx, ry := transformPoint(inv, x, y)
	if !almostEqual(rx, 12) || !almostEqual(ry, 34) {
		t.Errorf("round trip failed: got (%v, %v)", rx, ry)
	}
}

func TestInvertAffine_Singular(t *testing.T) {
	singular := [6]float64{0, 0, 0, 0, 5, 5}
	if inv := invertAffine(singular); inv != identityTransform {
		t.Errorf("expected identity for singular matrix, got %v", inv)
	}
}

func TestMultiplyAffine_Composition(t *testing.T) {
	parent := NewContainer("parent")
	parent.SetPosition(100, 0)
	child := NewContainer("child")
	child.SetPosition(0, 50)

	pm := computeLocalTransform(parent)
	cm := computeLocalTransform(child)
	combined := multiplyAffine(pm, cm)

	x, y := transformPoint(combined, 0, 0)
	if !almostEqual(x, 100) || !almostEqual(y, 50) {
		t.Errorf("expected (100, 50), got (%v, %v)", x, y)
	}
}

func TestUpdateWorldTransform_Hierarchy(t *testing.T) {
	root := NewContainer("root")
	parent := NewContainer("parent")
	parent.SetPosition(10, 10)
	child := NewContainer("child")
	child.SetPosition(5, 5)
	root.AddChild(parent)
	parent.AddChild(child)

	updateWorldTransform(root, identityTransform, false)

	wx, wy := child.LocalToWorld(0, 0)
	if !almostEqual(wx, 15) || !almostEqual(wy, 15) {
		t.Errorf("expected world (15, 15), got (%v, %v)", wx, wy)
	}

	lx, ly := child.WorldToLocal(15, 15)
	if !almostEqual(lx, 0) || !almostEqual(ly, 0) {
		t.Errorf("expected local (0, 0), got (%v, %v)", lx, ly)
	}
}

func TestUpdateWorldTransform_DirtyPropagation(t *testing.T) {
	root := NewContainer("root")
	child := NewContainer("child")
	root.AddChild(child)
	updateWorldTransform(root, identityTransform, false)

	// Moving the root must recompute the child even though the child
	// itself is clean.
	root.SetPosition(40, 0)
	updateWorldTransform(root, identityTransform, false)

	wx, _ := child.LocalToWorld(0, 0)
	if !almostEqual(wx, 40) {
		t.Errorf("expected child world X 40, got %v", wx)
	}
}
