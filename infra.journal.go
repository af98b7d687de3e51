package main

import (
	"context"
	"time"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// DefaultRecentActivities is the number of entries served when no limit is given.
const DefaultRecentActivities = 50

var _ ActivityJournal = (*boltJournal)(nil)

type boltJournal struct {
	logger *zap.Logger
	client *bolt.DB
	bucket []byte
}

// NewBoltJournal provides the activity journal stored in an existing bolt bucket.
func NewBoltJournal(logger *zap.Logger, client *bolt.DB, bucket string) ActivityJournal {
	return &boltJournal{logger: logger, client: client, bucket: []byte(bucket)}
}

// journalKey sorts entries by time then id. The fixed width time layout
// keeps the byte order of keys equal to the chronological order.
func journalKey(activity Activity) []byte {
	return []byte(activity.At.UTC().Format("2006-01-02T15:04:05.000000000Z") + "|" + activity.ID)
}

// Append stores an activity.
func (bj *boltJournal) Append(_ context.Context, activity Activity) error {
	if activity.At.IsZero() {
		activity.At = time.Now().UTC()
	}
	data, err := codec.Marshal(activity)
	if err != nil {
		return err
	}
	return bj.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bj.bucket).Put(journalKey(activity), data)
	})
}

// Recent returns at most limit activities, newest first.
func (bj *boltJournal) Recent(_ context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentActivities
	}
	activities := []Activity{}
	err := bj.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bj.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(activities) < limit; k, v = c.Prev() {
			var activity Activity
			if err := codec.Unmarshal(v, &activity); err != nil {
				bj.logger.Warn("journal: skipping unreadable entry", zap.ByteString("key", k), zap.Error(err))
				continue
			}
			activities = append(activities, activity)
		}
		return nil
	})
	return activities, err
}
