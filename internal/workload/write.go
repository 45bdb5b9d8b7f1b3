// Package workload generates the single logical unit of benchmark work: one
// insert of a fixed-size payload row against a live session.
package workload

import (
	"context"
	"time"

	"github.com/r4victor/walbench/internal/errors"
	"github.com/r4victor/walbench/internal/session"
)

const insertSQL = `INSERT INTO entries (payload) VALUES (?)`

// Write executes exactly one insert and returns its latency. The row is
// either committed or an error is returned; busy rejections come back as
// WRITE_BUSY, anything else as WRITE_IO.
func Write(ctx context.Context, sess *session.Session, payload []byte) (time.Duration, error) {
	db, err := sess.DB()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	_, err = db.ExecContext(ctx, insertSQL, payload)
	latency := time.Since(start)

	if err != nil {
		return latency, errors.ClassifyWriteError(err)
	}
	return latency, nil
}
