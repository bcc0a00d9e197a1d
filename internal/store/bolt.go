package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

const sessionsBucket = "sessions"

// Bolt is a bbolt-backed Repository. Each owner gets a nested bucket under
// "sessions"; values are JSON-encoded sessions keyed by session ID.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (and creates if missing) a bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: bolt path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(clean, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) Get(ctx context.Context, owner, id string) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var s game.Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		ob := ownerBucket(tx, owner)
		if ob == nil {
			return ErrNotFound
		}
		payload := ob.Get([]byte(id))
		if payload == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("unmarshal session %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (b *Bolt) Put(ctx context.Context, owner string, s *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(owner, s); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		ob, err := tx.Bucket([]byte(sessionsBucket)).CreateBucketIfNotExists([]byte(owner))
		if err != nil {
			return fmt.Errorf("create owner bucket: %w", err)
		}
		return ob.Put([]byte(s.ID), payload)
	})
}

func (b *Bolt) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		ob := ownerBucket(tx, owner)
		if ob == nil {
			return nil
		}
		if err := ob.Delete([]byte(id)); err != nil {
			return err
		}
		// Drop the owner bucket once it is empty.
		if k, _ := ob.Cursor().First(); k == nil {
			return tx.Bucket([]byte(sessionsBucket)).DeleteBucket([]byte(owner))
		}
		return nil
	})
}

func (b *Bolt) ListAll(ctx context.Context, owner string) (map[string]*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*game.Session)
	err := b.db.View(func(tx *bbolt.Tx) error {
		ob := ownerBucket(tx, owner)
		if ob == nil {
			return nil
		}
		return ob.ForEach(func(k, v []byte) error {
			var s game.Session
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("unmarshal session %s: %w", k, err)
			}
			out[string(k)] = &s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ownerBucket(tx *bbolt.Tx, owner string) *bbolt.Bucket {
	if owner == "" {
		return nil
	}
	return tx.Bucket([]byte(sessionsBucket)).Bucket([]byte(owner))
}
