// Package bolt stores the feature snapshot in a BoltDB file.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/alfredjeanlab/agritag/internal/persist"
)

// Bucket holds every slot in the file.
const Bucket = "agritag"

// Slot is one key in the agritag bucket.
type Slot struct {
	db  *bbolt.DB
	key []byte
}

var _ persist.Slot = (*Slot)(nil)

// Open opens (creating if needed) the BoltDB file at path and ensures the
// bucket exists. name is the slot key.
func Open(path, name string) (*Slot, error) {
	if name == "" {
		name = persist.DefaultSlotName
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(Bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Slot{db: db, key: []byte(name)}, nil
}

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(Bucket)).Get(s.key)
		if v != nil {
			// v is only valid for the life of the transaction.
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", s.key, err)
	}
	return out, nil
}

func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(Bucket)).Put(s.key, data)
	}); err != nil {
		return fmt.Errorf("write slot %s: %w", s.key, err)
	}
	return nil
}

// Close releases the file lock.
func (s *Slot) Close() error {
	return s.db.Close()
}
