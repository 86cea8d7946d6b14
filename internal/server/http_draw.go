package server

import (
	"fmt"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/draw"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/surface"
	"github.com/alfredjeanlab/agritag/internal/workspace"
)

// drawInput is one drawing-toolkit event. Action selects which of the
// remaining fields apply.
type drawInput struct {
	Action   string            `json:"action"` // create, edit or delete
	Shape    model.ShapeKind   `json:"shape,omitempty"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Edits    []layerEditInput  `json:"edits,omitempty"`
	Layers   []surface.Handle  `json:"layers,omitempty"`
}

type layerEditInput struct {
	Layer    surface.Handle    `json:"layer"`
	Geometry *geojson.Geometry `json:"geometry"`
}

type outcomeView struct {
	Created string   `json:"created,omitempty"`
	Edited  []string `json:"edited,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
	Ignored int      `json:"ignored"`
}

func newOutcomeView(o draw.Outcome) outcomeView {
	return outcomeView{Created: o.Created, Edited: o.Edited, Deleted: o.Deleted, Ignored: o.Ignored}
}

type layerView struct {
	Handle    surface.Handle    `json:"handle"`
	FeatureID string            `json:"feature_id,omitempty"`
	Color     string            `json:"color,omitempty"`
	Geometry  *geojson.Geometry `json:"geometry"`
}

func newLayerView(l surface.Layer) layerView {
	v := layerView{Handle: l.Handle(), FeatureID: l.Tag(), Color: l.Style().Color}
	if g := l.Geometry(); g != nil {
		v.Geometry = geojson.NewGeometry(g)
	}
	return v
}

// handleDraw handles POST /v1/draw.
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var in drawInput
	if !decodeBody(w, r, &in) {
		return
	}

	switch in.Action {
	case "create":
		if in.Shape == "" {
			writeError(w, http.StatusBadRequest, "shape is required")
			return
		}
		f, err := s.ws.DrawShape(r.Context(), in.Shape, geometryOf(in.Geometry))
		if err != nil {
			writeWorkspaceError(w, err)
			return
		}
		var layers []layerView
		for _, l := range surface.Tagged(s.ws.Surface(), f.ID) {
			layers = append(layers, newLayerView(l))
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"feature": newFeatureView(f),
			"layers":  layers,
		})

	case "edit":
		edits := make([]workspace.LayerEdit, 0, len(in.Edits))
		for _, e := range in.Edits {
			edits = append(edits, workspace.LayerEdit{Handle: e.Layer, Geometry: geometryOf(e.Geometry)})
		}
		out, err := s.ws.EditLayers(r.Context(), edits)
		if err != nil {
			writeWorkspaceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newOutcomeView(out))

	case "delete":
		out, err := s.ws.DeleteLayers(r.Context(), in.Layers)
		if err != nil {
			writeWorkspaceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newOutcomeView(out))

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q (want create, edit or delete)", in.Action))
	}
}

// handleListLayers handles GET /v1/layers.
func (s *Server) handleListLayers(w http.ResponseWriter, _ *http.Request) {
	layers := s.ws.Surface().Layers()
	out := make([]layerView, 0, len(layers))
	for _, l := range layers {
		out = append(out, newLayerView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func geometryOf(g *geojson.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return g.Geometry()
}
