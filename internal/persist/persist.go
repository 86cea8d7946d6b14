// Package persist saves the whole feature store to one local key/value slot
// and reads it back at startup.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// DefaultSlotName is the key the store snapshot is kept under.
const DefaultSlotName = "agritag:features"

// Slot is a single named blob in local storage.
type Slot interface {
	// Read returns the stored blob, or nil with no error when the slot has
	// never been written.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the blob in one operation.
	Write(ctx context.Context, data []byte) error
	Close() error
}

// ErrCorrupt marks a snapshot that decoded but violates store invariants.
var ErrCorrupt = errors.New("corrupt snapshot")

// Adapter loads and saves store snapshots through a Slot.
type Adapter struct {
	slot   Slot
	logger *slog.Logger
}

// NewAdapter wraps slot.
func NewAdapter(slot Slot, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{slot: slot, logger: logger}
}

// Load returns the saved features. Unreadable or corrupt state is logged and
// yields an empty result; Load never fails.
func (a *Adapter) Load(ctx context.Context) []*model.Feature {
	data, err := a.slot.Read(ctx)
	if err != nil {
		a.logger.Warn("persisted features unreadable, starting empty", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}
	features, err := Decode(data)
	if err != nil {
		a.logger.Warn("persisted features corrupt, starting empty", "error", err, "bytes", len(data))
		return nil
	}
	a.logger.Debug("persisted features loaded", "count", len(features))
	return features
}

// Save writes the full snapshot in a single slot write.
func (a *Adapter) Save(ctx context.Context, features []*model.Feature) error {
	data, err := Encode(features)
	if err != nil {
		return err
	}
	if err := a.slot.Write(ctx, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close closes the slot.
func (a *Adapter) Close() error {
	return a.slot.Close()
}

// Encode serializes features as an array of {id, geometry, properties}.
func Encode(features []*model.Feature) ([]byte, error) {
	if features == nil {
		features = []*model.Feature{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot. Every entry needs a unique, non-empty ID and a
// geometry.
func Decode(data []byte) ([]*model.Feature, error) {
	var features []*model.Feature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	seen := make(map[string]bool, len(features))
	for i, f := range features {
		switch {
		case f == nil:
			return nil, fmt.Errorf("%w: entry %d is null", ErrCorrupt, i)
		case f.ID == "":
			return nil, fmt.Errorf("%w: entry %d has no id", ErrCorrupt, i)
		case seen[f.ID]:
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorrupt, f.ID)
		case f.Geometry == nil:
			return nil, fmt.Errorf("%w: feature %q has no geometry", ErrCorrupt, f.ID)
		}
		seen[f.ID] = true
	}
	return features, nil
}
