package client

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/query"
	"github.com/alfredjeanlab/agritag/internal/workspace"
)

// LocalClient implements Client against an in-process workspace.
type LocalClient struct {
	ws      *workspace.Workspace
	closeFn func() error
}

// NewLocalClient wraps an opened workspace. closeFn, when non-nil, runs on
// Close and should release the workspace's storage.
func NewLocalClient(ws *workspace.Workspace, closeFn func() error) *LocalClient {
	return &LocalClient{ws: ws, closeFn: closeFn}
}

func (c *LocalClient) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

func (c *LocalClient) ListFeatures(_ context.Context, filter model.FeatureFilter) (*FeatureList, error) {
	all := c.ws.Features()
	out := &FeatureList{Total: len(all), Crops: query.Crops(all)}
	for _, f := range query.Features(all, filter) {
		out.Features = append(out.Features, FromModel(f))
	}
	return out, nil
}

func (c *LocalClient) GetFeature(_ context.Context, id string) (*Feature, error) {
	f, err := c.ws.Feature(id)
	if err != nil {
		return nil, err
	}
	return FromModel(f), nil
}

func (c *LocalClient) UpdateFeature(ctx context.Context, id string, patch model.AttributePatch) (*Feature, error) {
	f, err := c.ws.UpdateAttributes(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return FromModel(f), nil
}

func (c *LocalClient) DeleteFeature(ctx context.Context, id string) error {
	return c.ws.DeleteFeature(ctx, id)
}

func (c *LocalClient) Draw(ctx context.Context, shape model.ShapeKind, g orb.Geometry) (*Feature, error) {
	f, err := c.ws.DrawShape(ctx, shape, g)
	if err != nil {
		return nil, err
	}
	return FromModel(f), nil
}

func (c *LocalClient) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	res, err := c.ws.Import(ctx, data)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Features: res.Features, Skipped: res.Skipped}, nil
}

func (c *LocalClient) Export(_ context.Context) ([]byte, string, error) {
	data, err := c.ws.Export()
	if err != nil {
		return nil, "", err
	}
	return data, c.ws.ExportFilename(), nil
}

func (c *LocalClient) Vocabulary(_ context.Context) (model.Vocabulary, error) {
	return c.ws.Vocabulary(), nil
}

func (c *LocalClient) Health(_ context.Context) (string, error) {
	return "ok", nil
}

var _ Client = (*LocalClient)(nil)
