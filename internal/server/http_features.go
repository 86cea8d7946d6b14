package server

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/geo"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/query"
)

// featureView is a feature as the editor panel shows it.
type featureView struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties model.Attributes  `json:"properties"`
	AreaHa     float64           `json:"area_ha"`
}

func newFeatureView(f *model.Feature) featureView {
	v := featureView{
		ID:         f.ID,
		Kind:       f.Kind(),
		Properties: f.Attributes,
		AreaHa:     geo.AreaHa(f.Geometry),
	}
	if f.Geometry != nil {
		v.Geometry = geojson.NewGeometry(f.Geometry)
	}
	return v
}

func featureViews(fs []*model.Feature) []featureView {
	out := make([]featureView, 0, len(fs))
	for _, f := range fs {
		out = append(out, newFeatureView(f))
	}
	return out
}

// handleListFeatures handles GET /v1/features?search=&crop=.
func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.FeatureFilter{
		Search: q.Get("search"),
		Crop:   q.Get("crop"),
	}
	all := s.ws.Features()
	matched := query.Features(all, filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"features": featureViews(matched),
		"total":    len(all),
		"crops":    query.Crops(all),
	})
}

// handleGetFeature handles GET /v1/features/{id}.
func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	f, err := s.ws.Feature(r.PathValue("id"))
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureView(f))
}

// handleUpdateFeature handles PATCH /v1/features/{id}.
func (s *Server) handleUpdateFeature(w http.ResponseWriter, r *http.Request) {
	var patch model.AttributePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	f, err := s.ws.UpdateAttributes(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureView(f))
}

// handleDeleteFeature handles DELETE /v1/features/{id}.
func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteFeature(r.Context(), r.PathValue("id")); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectFeature handles POST /v1/features/{id}/select.
func (s *Server) handleSelectFeature(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ws.Select(id); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	f, err := s.ws.Feature(id)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureView(f))
}

type boundsView struct {
	Min orb.Point `json:"min"`
	Max orb.Point `json:"max"`
}

// handleFeatureBounds handles GET /v1/features/{id}/bounds. The padded box
// is null for features without extent.
func (s *Server) handleFeatureBounds(w http.ResponseWriter, r *http.Request) {
	b, ok, err := s.ws.ZoomBounds(r.PathValue("id"))
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	var out *boundsView
	if ok {
		out = &boundsView{Min: b.Min, Max: b.Max}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bounds": out})
}

// handleGetSelection handles GET /v1/selection.
func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.ws.Selected()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": newFeatureView(f)})
}

// handleUpdateSelection handles PATCH /v1/selection.
func (s *Server) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var patch model.AttributePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	f, err := s.ws.UpdateSelected(r.Context(), patch)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeatureView(f))
}

// handleClearSelection handles DELETE /v1/selection.
func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	_ = s.ws.Select("")
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDrawColor handles GET /v1/draw-color.
func (s *Server) handleGetDrawColor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"color": s.ws.DrawColor()})
}

// handleSetDrawColor handles PUT /v1/draw-color.
func (s *Server) handleSetDrawColor(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Color string `json:"color"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if err := s.ws.SetDrawColor(in.Color); err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"color": in.Color})
}
