package workspace

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/draw"
	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/interchange"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/persist"
	"github.com/alfredjeanlab/agritag/internal/surface"
)

var (
	square = orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}
	fixed  = time.Date(2024, 8, 17, 6, 30, 0, 0, time.UTC)
)

type recorder struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (r *recorder) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) last() (string, any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.topics) == 0 {
		return "", nil
	}
	return r.topics[len(r.topics)-1], r.events[len(r.events)-1]
}

type harness struct {
	ws     *Workspace
	slot   *persist.MemorySlot
	canvas *surface.Canvas
	pub    *recorder
	logs   *bytes.Buffer
}

func newHarness(t *testing.T, initial []byte) *harness {
	t.Helper()
	h := &harness{
		slot:   persist.NewMemorySlot(initial),
		canvas: surface.NewCanvas(),
		pub:    &recorder{},
		logs:   &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ws, err := New(Options{
		Surface:   h.canvas,
		Persist:   persist.NewAdapter(h.slot, logger),
		Publisher: h.pub,
		Logger:    logger,
		Clock:     func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.ws = ws
	ws.Open(context.Background())
	return h
}

func (h *harness) saved(t *testing.T) []*model.Feature {
	t.Helper()
	data, _ := h.slot.Read(context.Background())
	features, err := persist.Decode(data)
	if err != nil {
		t.Fatalf("persisted snapshot: %v", err)
	}
	return features
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{DrawColor: "green"}); err == nil {
		t.Fatal("expected error for bad draw color")
	}
	if _, err := New(Options{Vocab: &model.Vocabulary{Seasons: []string{"Dry"}}}); err == nil {
		t.Fatal("expected error for vocabulary without crops")
	}
	ws, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ws.DrawColor() != model.DefaultDrawColor {
		t.Fatalf("default draw color = %s", ws.DrawColor())
	}
}

func TestDrawEditDelete(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	f, err := h.ws.DrawShape(ctx, model.ShapePolygon, square)
	if err != nil {
		t.Fatal(err)
	}
	if f.Attributes.Name != "Plot 1" || !f.Attributes.CreatedAt.Equal(fixed) {
		t.Fatalf("attributes = %+v", f.Attributes)
	}
	if sel, ok := h.ws.Selected(); !ok || sel.ID != f.ID {
		t.Fatal("new feature should be selected")
	}
	if topic, _ := h.pub.last(); topic != events.TopicFeatureCreated {
		t.Fatalf("last topic = %s", topic)
	}
	if saved := h.saved(t); len(saved) != 1 || saved[0].ID != f.ID {
		t.Fatalf("saved = %v", saved)
	}

	layer := surface.Tagged(h.canvas, f.ID)[0]
	if layer.Style().Color != model.DefaultDrawColor {
		t.Fatalf("layer color = %s", layer.Style().Color)
	}

	bigger := orb.Polygon{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}}
	out, err := h.ws.EditLayers(ctx, []LayerEdit{{Handle: layer.Handle(), Geometry: bigger}, {Handle: 999, Geometry: bigger}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Edited) != 1 || out.Edited[0] != f.ID || out.Ignored != 1 {
		t.Fatalf("edit outcome = %+v", out)
	}
	edited, _ := h.ws.Feature(f.ID)
	if !orb.Equal(edited.Geometry, bigger) {
		t.Fatalf("geometry = %v", edited.Geometry)
	}
	if area, _ := h.ws.AreaHa(f.ID); area <= 4e6 {
		t.Fatalf("area after edit = %f", area)
	}

	out, err = h.ws.DeleteLayers(ctx, []surface.Handle{layer.Handle()})
	if err != nil || len(out.Deleted) != 1 {
		t.Fatalf("delete outcome = %+v, %v", out, err)
	}
	if _, ok := h.ws.Selected(); ok {
		t.Fatal("selection should clear with its feature")
	}
	if len(h.canvas.Layers()) != 0 || len(h.ws.Features()) != 0 || len(h.saved(t)) != 0 {
		t.Fatal("delete left state behind")
	}

	// A second delete of the same layer is a no-op.
	out, err = h.ws.DeleteLayers(ctx, []surface.Handle{layer.Handle()})
	if err != nil || out.Changed() {
		t.Fatalf("repeat delete = %+v, %v", out, err)
	}
}

func TestDrawShape_Rejects(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	var ve *model.ValidationError
	for _, tc := range []struct {
		shape model.ShapeKind
		g     orb.Geometry
	}{
		{model.ShapeMarker, square},
		{model.ShapePolygon, orb.Point{1, 1}},
		{model.ShapePolygon, nil},
		{"custom", orb.Collection{orb.Point{1, 1}, orb.Point{2, 2}}},
	} {
		if _, err := h.ws.DrawShape(ctx, tc.shape, tc.g); !errors.As(err, &ve) {
			t.Errorf("DrawShape(%s, %T) err = %v, want ValidationError", tc.shape, tc.g, err)
		}
	}
	if len(h.canvas.Layers()) != 0 || len(h.ws.Features()) != 0 {
		t.Fatal("rejected draws left state behind")
	}
}

func TestEditLayers_KindChangeRejected(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	f, _ := h.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{110, -7})
	layer := surface.Tagged(h.canvas, f.ID)[0]

	_, err := h.ws.EditLayers(ctx, []LayerEdit{{Handle: layer.Handle(), Geometry: square}})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := layer.Geometry().(orb.Point); !ok {
		t.Fatal("rejected edit reshaped the layer")
	}
}

func TestUpdateAttributes_RepairsStyle(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	f, _ := h.ws.DrawShape(ctx, model.ShapePolygon, square)

	color, notes := "#ff8800", "terraced"
	got, err := h.ws.UpdateSelected(ctx, model.AttributePatch{Color: &color, Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if got.Attributes.Color != color || got.Attributes.Notes != notes || got.Attributes.Name != "Plot 1" {
		t.Fatalf("attributes = %+v", got.Attributes)
	}
	if c := surface.Tagged(h.canvas, f.ID)[0].Style().Color; c != color {
		t.Fatalf("layer color = %s, want %s", c, color)
	}
	topic, ev := h.pub.last()
	if topic != events.TopicFeatureUpdated {
		t.Fatalf("topic = %s", topic)
	}
	if changes := ev.(events.FeatureUpdated).Changes; len(changes) != 2 || changes[0] != "color" || changes[1] != "notes" {
		t.Fatalf("changes = %v", changes)
	}
	if h.saved(t)[0].Attributes.Color != color {
		t.Fatal("attribute change not persisted")
	}
}

func TestUpdateAttributes_Errors(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	name := "x"
	if _, err := h.ws.UpdateAttributes(ctx, "ft-missing", model.AttributePatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := h.ws.UpdateSelected(ctx, model.AttributePatch{Name: &name}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	f, _ := h.ws.DrawShape(ctx, model.ShapePolygon, square)
	bad := "#12"
	var ve *model.ValidationError
	if _, err := h.ws.UpdateAttributes(ctx, f.ID, model.AttributePatch{Color: &bad}); !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	writes := h.slot.Writes()
	if _, err := h.ws.UpdateAttributes(ctx, f.ID, model.AttributePatch{}); err != nil {
		t.Fatal(err)
	}
	if h.slot.Writes() != writes {
		t.Fatal("empty patch triggered a save")
	}
}

func TestSelectAndDeleteFeature(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	a, _ := h.ws.DrawShape(ctx, model.ShapePolygon, square)
	b, _ := h.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{3, 3})

	if err := h.ws.Select(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := h.ws.Select("ft-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if sel, _ := h.ws.Selected(); sel.ID != a.ID {
		t.Fatal("failed Select changed the selection")
	}

	if err := h.ws.DeleteFeature(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := h.ws.DeleteFeature(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteFeature err = %v", err)
	}
	if len(surface.Tagged(h.canvas, a.ID)) != 0 {
		t.Fatal("deleted feature's layer still on the surface")
	}
	if _, ok := h.ws.Selected(); ok {
		t.Fatal("selection should clear")
	}
	if fs := h.ws.Features(); len(fs) != 1 || fs[0].ID != b.ID {
		t.Fatalf("features = %v", fs)
	}

	if err := h.ws.Select(""); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_HydratesAndRebuilds(t *testing.T) {
	snapshot, _ := persist.Encode([]*model.Feature{
		{ID: "ft-a", Geometry: square, Attributes: model.Attributes{Name: "North Field", Crop: "Rice", Color: "#ff0000"}},
		{ID: "ft-b", Geometry: orb.Point{1, 1}, Attributes: model.Attributes{Name: "Well", Crop: "Other"}},
	})
	h := newHarness(t, snapshot)

	if fs := h.ws.Features(); len(fs) != 2 || fs[0].ID != "ft-a" {
		t.Fatalf("features = %v", fs)
	}
	layers := h.canvas.Layers()
	if len(layers) != 2 || layers[0].Tag() != "ft-a" || layers[1].Style().Color != model.DefaultDrawColor {
		t.Fatalf("layers not rebuilt from store")
	}
	if topic, ev := h.pub.last(); topic != events.TopicStoreHydrated || ev.(events.StoreHydrated).Count != 2 {
		t.Fatalf("hydration event = %s %v", topic, ev)
	}

	// Drawing after hydration numbers from the loaded count.
	f, _ := h.ws.DrawShape(context.Background(), model.ShapeMarker, orb.Point{5, 5})
	if f.Attributes.Name != "Point 3" {
		t.Fatalf("name = %q", f.Attributes.Name)
	}
}

func TestOpen_CorruptSnapshot(t *testing.T) {
	h := newHarness(t, []byte("{not json"))
	if len(h.ws.Features()) != 0 {
		t.Fatal("corrupt snapshot should yield an empty store")
	}
	if !bytes.Contains(h.logs.Bytes(), []byte("level=WARN")) {
		t.Fatal("corrupt snapshot should be logged")
	}
}

func TestImport(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.ws.DrawShape(ctx, model.ShapePolygon, square)

	doc := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}},
		{"type":"Feature","geometry":null},
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[0,0]]]},"properties":{"name":"East","color":"#123456"}}
	]}`)
	res, err := h.ws.Import(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 2 || len(res.Skipped) != 1 || res.Skipped[0].Index != 1 {
		t.Fatalf("result = %+v", res)
	}
	first := res.Features[0]
	if first.Attributes.Name != "Point 2" || first.Attributes.Crop != "Rice" || first.Attributes.Notes != "" {
		t.Fatalf("defaults = %+v", first.Attributes)
	}
	if sel, _ := h.ws.Selected(); sel.ID != first.ID {
		t.Fatal("first imported feature should be selected")
	}
	if got := len(h.ws.Features()); got != 3 {
		t.Fatalf("store has %d features", got)
	}
	layers := h.canvas.Layers()
	if len(layers) != 3 || layers[2].Style().Color != "#123456" {
		t.Fatal("surface not rebuilt after import")
	}
	if topic, _ := h.pub.last(); topic != events.TopicStoreImported {
		t.Fatalf("topic = %s", topic)
	}
}

func TestImport_MalformedLeavesStoreUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.ws.DrawShape(ctx, model.ShapePolygon, square)
	before, _ := h.slot.Read(ctx)
	writes := h.slot.Writes()

	_, err := h.ws.Import(ctx, []byte(`{"type":"FeatureCollection"}`))
	var ie *interchange.ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want ImportError", err)
	}
	after, _ := h.slot.Read(ctx)
	if !bytes.Equal(before, after) || h.slot.Writes() != writes {
		t.Fatal("rejected import touched persisted state")
	}
	if len(h.ws.Features()) != 1 {
		t.Fatal("rejected import changed the store")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newHarness(t, nil)
	ctx := context.Background()
	src.ws.DrawShape(ctx, model.ShapePolygon, square)
	src.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{110.5, -7.25})
	notes := "by the river"
	src.ws.UpdateSelected(ctx, model.AttributePatch{Notes: &notes})
	blank := "   "
	third, _ := src.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{110.6, -7.3})
	if _, err := src.ws.UpdateAttributes(ctx, third.ID, model.AttributePatch{Notes: &blank}); err != nil {
		t.Fatal(err)
	}

	doc, err := src.ws.Export()
	if err != nil {
		t.Fatal(err)
	}
	dst := newHarness(t, nil)
	if _, err := dst.ws.Import(ctx, doc); err != nil {
		t.Fatal(err)
	}

	want, got := src.ws.Features(), dst.ws.Features()
	if len(want) != len(got) {
		t.Fatalf("round trip: %d features, want %d", len(got), len(want))
	}
	for i := range want {
		if !orb.Equal(want[i].Geometry, got[i].Geometry) {
			t.Errorf("feature %d geometry differs", i)
		}
		a, b := want[i].Attributes, got[i].Attributes
		if !a.CreatedAt.Equal(b.CreatedAt) {
			t.Errorf("feature %d createdAt %v != %v", i, b.CreatedAt, a.CreatedAt)
		}
		a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
		if a != b {
			t.Errorf("feature %d attributes %+v != %+v", i, b, a)
		}
	}
	if src.ws.ExportFilename() != "agritag_2024-08-17.geojson" {
		t.Fatalf("filename = %s", src.ws.ExportFilename())
	}
}

func TestQueryAndBounds(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	a, _ := h.ws.DrawShape(ctx, model.ShapePolygon, square)
	name := "North Field"
	h.ws.UpdateAttributes(ctx, a.ID, model.AttributePatch{Name: &name})
	b, _ := h.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{1, 1})
	corn := "Corn"
	h.ws.UpdateAttributes(ctx, b.ID, model.AttributePatch{Crop: &corn})

	if got := h.ws.Query(model.FeatureFilter{Crop: "Corn"}); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("crop query = %v", got)
	}
	if got := h.ws.Query(model.FeatureFilter{Search: "north", Crop: model.AllCrops}); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("search query = %v", got)
	}

	bound, ok, err := h.ws.ZoomBounds(a.ID)
	if err != nil || !ok || bound.Min[0] >= 0 || bound.Max[0] <= 1 {
		t.Fatalf("ZoomBounds = %v, %v, %v", bound, ok, err)
	}
	if _, _, err := h.ws.ZoomBounds("ft-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if area, _ := h.ws.AreaHa(b.ID); area != 0 {
		t.Fatalf("point area = %f", area)
	}
}

func TestSetDrawColor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	if err := h.ws.SetDrawColor("blue"); err == nil {
		t.Fatal("expected validation error")
	}
	if err := h.ws.SetDrawColor("#3366ff"); err != nil {
		t.Fatal(err)
	}
	f, _ := h.ws.DrawShape(ctx, model.ShapePolygon, square)
	if f.Attributes.Color != "#3366ff" {
		t.Fatalf("color = %s", f.Attributes.Color)
	}
}

func TestHandleDrawEvent_Direct(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	layer := h.canvas.Render(square)[0]
	h.canvas.Add(layer)

	out, err := h.ws.HandleDrawEvent(ctx, draw.Create{Shape: model.ShapeRectangle, Layer: layer, At: fixed})
	if err != nil || out.Created == "" || layer.Tag() != out.Created {
		t.Fatalf("outcome = %+v, %v", out, err)
	}
	stale := h.canvas.Render(square)[0]
	stale.SetTag("ft-gone")
	out, err = h.ws.HandleDrawEvent(ctx, draw.Delete{Layers: []surface.Layer{stale}})
	if err != nil || out.Changed() {
		t.Fatalf("stale delete = %+v, %v", out, err)
	}
}

// importPair imports one feature whose geometry is a two-point collection
// and returns it with its member layers.
func importPair(t *testing.T, h *harness) (*model.Feature, []surface.Layer) {
	t.Helper()
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature",
		"geometry":{"type":"GeometryCollection","geometries":[
			{"type":"Point","coordinates":[1,1]},{"type":"Point","coordinates":[2,2]}]},
		"properties":{"name":"Gate posts"}}]}`
	res, err := h.ws.Import(context.Background(), []byte(doc))
	if err != nil || len(res.Features) != 1 {
		t.Fatalf("import = %+v, %v", res, err)
	}
	f := res.Features[0]
	layers := surface.Tagged(h.canvas, f.ID)
	if len(layers) != 2 {
		t.Fatalf("collection rendered as %d layers, want 2", len(layers))
	}
	return f, layers
}

func TestEditLayers_CollectionMemberRestored(t *testing.T) {
	h := newHarness(t, nil)
	f, layers := importPair(t, h)

	out, err := h.ws.EditLayers(context.Background(), []LayerEdit{{Handle: layers[0].Handle(), Geometry: orb.Point{9, 9}}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Ignored != 1 || len(out.Edited) != 0 {
		t.Fatalf("outcome = %+v, want the member edit ignored", out)
	}
	if got := layers[0].Geometry(); !orb.Equal(got, orb.Point{1, 1}) {
		t.Fatalf("layer geometry = %v, want it restored to [1 1]", got)
	}
	stored, _ := h.ws.Feature(f.ID)
	if !orb.Equal(stored.Geometry, orb.Collection{orb.Point{1, 1}, orb.Point{2, 2}}) {
		t.Fatalf("store geometry = %v", stored.Geometry)
	}
}

func TestDeleteLayers_RemovesSiblingLayers(t *testing.T) {
	h := newHarness(t, nil)
	f, layers := importPair(t, h)

	out, err := h.ws.DeleteLayers(context.Background(), []surface.Handle{layers[0].Handle()})
	if err != nil || len(out.Deleted) != 1 || out.Deleted[0] != f.ID {
		t.Fatalf("outcome = %+v, %v", out, err)
	}
	if n := len(h.ws.Features()); n != 0 {
		t.Fatalf("features = %d, want 0", n)
	}
	if left := surface.Tagged(h.canvas, f.ID); len(left) != 0 {
		t.Fatalf("%d layers still tagged with the deleted feature", len(left))
	}
	if n := len(h.canvas.Layers()); n != 0 {
		t.Fatalf("surface has %d layers, want 0", n)
	}
}

func TestUpdateSelected_RacingDelete(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	notes := "checked"

	for range 50 {
		f, err := h.ws.DrawShape(ctx, model.ShapeMarker, orb.Point{110, -7})
		if err != nil {
			t.Fatal(err)
		}
		if err := h.ws.Select(f.ID); err != nil {
			t.Fatal(err)
		}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.ws.DeleteFeature(ctx, f.ID)
		}()
		var updErr error
		go func() {
			defer wg.Done()
			_, updErr = h.ws.UpdateSelected(ctx, model.AttributePatch{Notes: &notes})
		}()
		wg.Wait()
		if updErr != nil && !errors.Is(updErr, ErrNoSelection) {
			t.Fatalf("UpdateSelected err = %v, want nil or ErrNoSelection", updErr)
		}
	}
	if _, err := h.ws.UpdateSelected(ctx, model.AttributePatch{Notes: &notes}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("after delete err = %v, want ErrNoSelection", err)
	}
}
