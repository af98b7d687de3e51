package main

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// GetBoltDBClient opens the database, creates the given buckets and
// provides a ready to use client.
func GetBoltDBClient(config *Config, buckets ...string) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return db, nil
}

var _ StateStore = (*boltStateStore)(nil)

// boltRecord wraps a saved state with its save time so expiry can be
// checked on load.
type boltRecord struct {
	SavedAt time.Time `json:"savedAt"`
	State   []byte    `json:"state"`
}

type boltStateStore struct {
	logger *zap.Logger
	client *bolt.DB
	clock  Clocker
	bucket []byte
	ttl    time.Duration
}

// NewBoltStateStore provides a bolt-based session state store. The bucket
// must already exist.
func NewBoltStateStore(logger *zap.Logger, client *bolt.DB, clock Clocker, bucket string, ttl time.Duration) StateStore {
	return &boltStateStore{
		logger: logger,
		client: client,
		clock:  clock,
		bucket: []byte(bucket),
		ttl:    ttl,
	}
}

// Load retrieves the state saved for a session. An expired state is
// removed and reported as missing.
func (bs *boltStateStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	var record boltRecord
	err := bs.client.View(func(tx *bolt.Tx) error {
		result := tx.Bucket(bs.bucket).Get([]byte(sessionID))
		if result == nil {
			return ErrStateNotFound
		}
		return codec.Unmarshal(result, &record)
	})
	if err != nil {
		return nil, err
	}
	if bs.expired(record, bs.clock.Now()) {
		if derr := bs.Delete(ctx, sessionID); derr != nil {
			bs.logger.Warn("bolt: failed to remove expired session state", zap.String("session.id", sessionID), zap.Error(derr))
		}
		return nil, ErrStateNotFound
	}
	return record.State, nil
}

func (bs *boltStateStore) expired(record boltRecord, now time.Time) bool {
	return bs.ttl > 0 && !now.Before(record.SavedAt.Add(bs.ttl))
}

// Save inserts or replaces the state of a session.
func (bs *boltStateStore) Save(_ context.Context, sessionID string, state []byte) error {
	data, err := codec.Marshal(boltRecord{SavedAt: bs.clock.Now(), State: state})
	if err != nil {
		return err
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).Put([]byte(sessionID), data)
	})
}

// Delete removes the state of a session.
func (bs *boltStateStore) Delete(_ context.Context, sessionID string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).Delete([]byte(sessionID))
	})
}

// Purge removes every expired state in a single transaction. Unreadable
// records are removed as well since they can never be restored.
func (bs *boltStateStore) Purge(_ context.Context) (int, error) {
	if bs.ttl <= 0 {
		return 0, nil
	}
	now := bs.clock.Now()
	var expired [][]byte
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bs.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var record boltRecord
			if err := codec.Unmarshal(v, &record); err != nil || bs.expired(record, now) {
				expired = append(expired, append([]byte(nil), k...))
			}
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
