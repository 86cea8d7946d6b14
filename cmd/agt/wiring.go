package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/agritag/internal/config"
	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/export"
	"github.com/alfredjeanlab/agritag/internal/persist"
	"github.com/alfredjeanlab/agritag/internal/persist/bolt"
	"github.com/alfredjeanlab/agritag/internal/persist/sqlite"
	"github.com/alfredjeanlab/agritag/internal/workspace"
)

// runtime is an opened workspace plus everything that must be closed with it.
type runtime struct {
	ws        *workspace.Workspace
	persist   *persist.Adapter
	publisher events.Publisher
}

// openSlot opens the configured snapshot storage.
func openSlot(cfg *config.Config) (persist.Slot, error) {
	switch cfg.Storage {
	case config.StorageBolt:
		return bolt.Open(cfg.DataPath, cfg.SlotName)
	case config.StorageSQLite:
		return sqlite.Open(cfg.DataPath, cfg.SlotName)
	case config.StorageMemory:
		return persist.NewMemorySlot(nil), nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// openRuntime opens storage, connects the publishers and hydrates the
// workspace. extra publishers receive every event alongside NATS.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...events.Publisher) (*runtime, error) {
	slot, err := openSlot(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	adapter := persist.NewAdapter(slot, logger)

	pubs := events.Fanout(extra)
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			adapter.Close()
			return nil, err
		}
		pubs = append(pubs, pub)
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		logger.Debug("events disabled (AGRI_NATS_URL not set)")
	}

	ws, err := workspace.New(workspace.Options{
		Persist:   adapter,
		Publisher: pubs,
		Vocab:     &cfg.Vocabulary,
		DrawColor: cfg.DrawColor,
		Logger:    logger,
	})
	if err != nil {
		pubs.Close()
		adapter.Close()
		return nil, err
	}
	ws.Open(ctx)
	return &runtime{ws: ws, persist: adapter, publisher: pubs}, nil
}

func (r *runtime) Close() error {
	return errors.Join(r.publisher.Close(), r.persist.Close())
}

// exportDestinations builds the destinations enabled in cfg. Destinations
// that fail to initialize are logged and skipped.
func exportDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []export.Destination {
	var dests []export.Destination

	if cfg.ExportDir != "" {
		dests = append(dests, export.NewFileDestination(cfg.ExportDir))
		logger.Info("export file destination enabled", "dir", cfg.ExportDir)
	}

	if cfg.ExportS3Bucket != "" {
		s3Dest, err := export.NewS3Destination(ctx,
			cfg.ExportS3Bucket,
			cfg.ExportS3Prefix,
			cfg.ExportS3Region,
			cfg.ExportS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 export destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix)
		}
	}

	if cfg.ExportGitRepo != "" {
		dests = append(dests, export.NewGitDestination(cfg.ExportGitRepo, cfg.ExportGitFile, cfg.ExportGitBranch))
		logger.Info("export git destination enabled", "repo", cfg.ExportGitRepo, "file", cfg.ExportGitFile)
	}

	return dests
}
