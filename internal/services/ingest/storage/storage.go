// Package storage defines the ingest attempt ledger contract.
package storage

import (
	"context"
	"time"
)

// Attempt outcomes.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// AttemptRecord is one durable notification processing outcome.
type AttemptRecord struct {
	ID           int64
	VideoID      string
	ChannelID    string
	Outcome      string
	AttemptCount int
	LastError    string
	CreatedAt    time.Time
}

// AttemptStore persists notification processing attempts.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt AttemptRecord) error
	ListAttempts(ctx context.Context, limit int) ([]AttemptRecord, error)
}
