package events

import (
	"context"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// Event topic constants
const (
	TopicFeatureCreated = "agritag.feature.created"
	TopicFeatureUpdated = "agritag.feature.updated"
	TopicFeatureDeleted = "agritag.feature.deleted"

	// Whole-store events
	TopicStoreImported = "agritag.store.imported"
	TopicStoreHydrated = "agritag.store.hydrated"
)

// AllTopics matches every topic above.
const AllTopics = "agritag.>"

// Event types

type FeatureCreated struct {
	Feature *model.Feature `json:"feature"`
}

type FeatureUpdated struct {
	Feature *model.Feature `json:"feature"`
	Changes []string       `json:"changes"` // names of changed fields, "geometry" for reshapes
}

type FeatureDeleted struct {
	FeatureID string `json:"feature_id"`
}

type StoreImported struct {
	FeatureIDs []string `json:"feature_ids"`
	Skipped    int      `json:"skipped"`
}

type StoreHydrated struct {
	Count int `json:"count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
