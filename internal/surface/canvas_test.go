package surface

import (
	"testing"

	"github.com/paulmach/orb"
)

var square = orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}

func TestRender_DetachedUntilAdded(t *testing.T) {
	c := NewCanvas()
	layers := c.Render(square)
	if len(layers) != 1 {
		t.Fatalf("Render returned %d layers", len(layers))
	}
	if len(c.Layers()) != 0 {
		t.Fatal("Render must not attach layers")
	}
	c.Add(layers[0])
	c.Add(layers[0])
	if got := len(c.Layers()); got != 1 {
		t.Fatalf("Layers after double Add = %d", got)
	}
}

func TestRender_Collection(t *testing.T) {
	c := NewCanvas()
	layers := c.Render(orb.Collection{square, orb.Point{1, 2}, orb.Collection{orb.Point{3, 4}}})
	if len(layers) != 3 {
		t.Fatalf("Render returned %d layers, want 3", len(layers))
	}
	seen := map[Handle]bool{}
	for _, l := range layers {
		if seen[l.Handle()] {
			t.Fatalf("duplicate handle %d", l.Handle())
		}
		seen[l.Handle()] = true
	}
	if c.Render(nil) != nil {
		t.Fatal("Render(nil) should yield no layers")
	}
	if n := len(c.Render(orb.Polygon{})); n != 1 {
		t.Fatalf("empty polygon rendered as %d layers, want 1", n)
	}
	if n := len(c.Render(orb.Collection{})); n != 0 {
		t.Fatalf("empty collection rendered as %d layers, want 0", n)
	}
}

func TestAdd_ForeignLayerIgnored(t *testing.T) {
	a, b := NewCanvas(), NewCanvas()
	b.Add(a.Render(square)[0])
	if len(b.Layers()) != 0 {
		t.Fatal("canvas accepted another canvas's layer")
	}
}

func TestLayer_GeometryIsCopied(t *testing.T) {
	c := NewCanvas()
	g := orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}
	l := c.Render(g)[0]
	g[0][0] = orb.Point{5, 5}
	if l.Geometry().(orb.Polygon)[0][0] != (orb.Point{0, 0}) {
		t.Fatal("layer shares the rendered geometry")
	}
	out := l.Geometry().(orb.Polygon)
	out[0][0] = orb.Point{7, 7}
	if l.Geometry().(orb.Polygon)[0][0] != (orb.Point{0, 0}) {
		t.Fatal("Geometry returns the layer's own storage")
	}
}

func TestRemoveAndLookup(t *testing.T) {
	c := NewCanvas()
	first := c.Render(square)[0]
	second := c.Render(orb.Point{1, 1})[0]
	c.Add(first)
	c.Add(second)
	first.SetTag("ft-a")
	second.SetTag("ft-b")
	second.SetStyle(Style{Color: "#ff0000"})

	if l, ok := c.Layer(second.Handle()); !ok || l.Style().Color != "#ff0000" {
		t.Fatalf("Layer lookup = %v, %v", l, ok)
	}
	if got := Tagged(c, "ft-a"); len(got) != 1 || got[0].Handle() != first.Handle() {
		t.Fatalf("Tagged = %v", got)
	}
	if !c.Remove(first.Handle()) || c.Remove(first.Handle()) {
		t.Fatal("Remove should report true once")
	}
	if _, ok := c.Layer(first.Handle()); ok {
		t.Fatal("removed layer still found")
	}

	c.Clear()
	if len(c.Layers()) != 0 {
		t.Fatal("Clear left layers behind")
	}
}
