package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// ImportError reports a document that cannot be imported at all.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	return "import failed: " + e.Reason
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ImportOptions supplies the defaults applied to imported entries.
type ImportOptions struct {
	Vocab model.Vocabulary
	// Color is the current drawing color, used when an entry has none.
	Color string
	// Now stamps entries without a usable createdAt.
	Now time.Time
	// Existing is the store's feature count, used to number placeholder names.
	Existing int
}

// Draft is a parsed entry waiting for an ID.
type Draft struct {
	Geometry   orb.Geometry
	Attributes model.Attributes
}

// Skip records an entry that was dropped and why.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Batch is the result of parsing a document. Drafts are in document order.
type Batch struct {
	Drafts  []Draft
	Skipped []Skip
}

// Import parses data into drafts. Document-level defects return an
// *ImportError and no batch. Entry-level defects drop only that entry.
func Import(data []byte, opts ImportOptions) (*Batch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ImportError{Reason: "document is empty"}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ImportError{Reason: "document is not a JSON object", Err: err}
	}

	var typ string
	if raw, ok := top["type"]; !ok || json.Unmarshal(raw, &typ) != nil || typ != typeFeatureCollection {
		return nil, &ImportError{Reason: fmt.Sprintf("document type must be %q", typeFeatureCollection)}
	}

	rawFeatures, ok := top["features"]
	if !ok {
		return nil, &ImportError{Reason: "document has no features array"}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawFeatures, &entries); err != nil || entries == nil {
		return nil, &ImportError{Reason: "features must be an array", Err: err}
	}

	batch := &Batch{}
	for i, raw := range entries {
		d, reason := parseEntry(raw)
		if reason != "" {
			batch.Skipped = append(batch.Skipped, Skip{Index: i, Reason: reason})
			continue
		}
		d.Attributes = d.fill(opts, opts.Existing+len(batch.Drafts)+1)
		batch.Drafts = append(batch.Drafts, d.Draft)
	}
	return batch, nil
}

// parsed carries the raw string properties of an entry before defaulting.
type parsed struct {
	Draft
	props map[string]string
}

func parseEntry(raw json.RawMessage) (parsed, string) {
	var e struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return parsed{}, "entry is not an object"
	}
	if len(e.Geometry) == 0 || string(e.Geometry) == "null" {
		return parsed{}, "entry has no geometry"
	}
	g, err := geojson.UnmarshalGeometry(e.Geometry)
	if err != nil || g == nil || g.Geometry() == nil {
		return parsed{}, "entry geometry is not valid GeoJSON"
	}

	return parsed{
		Draft: Draft{Geometry: g.Geometry()},
		props: stringProperties(e.Properties),
	}, ""
}

// stringProperties keeps the string-valued properties exactly as written.
// Anything else counts as absent.
func stringProperties(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	var props map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &props) != nil {
		return out
	}
	for k, v := range props {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	return out
}

func (p parsed) fill(opts ImportOptions, n int) model.Attributes {
	a := model.Attributes{
		Name:   p.props["name"],
		Crop:   p.props["crop"],
		Season: p.props["season"],
		Color:  p.props["color"],
		Notes:  p.props["notes"],
	}
	if isBlank(a.Name) {
		a.Name = model.PlaceholderName(opts.Vocab.LabelForGeometry(p.Geometry), n)
	}
	if isBlank(a.Crop) {
		a.Crop = opts.Vocab.DefaultCrop()
	}
	if isBlank(a.Season) {
		a.Season = opts.Vocab.DefaultSeason()
	}
	if !model.IsHexColor(a.Color) {
		a.Color = opts.Color
	}
	a.CreatedAt = opts.Now
	if ts, ok := p.props["createdAt"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			a.CreatedAt = t
		}
	}
	return a
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
