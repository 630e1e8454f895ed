package domain

import (
	"context"

	records "helix/internal/services/records/domain"
)

// StatsPort reads the session statistics
type StatsPort interface {
	Snapshot() Snapshot
	Recent(q RecentQuery) []DisplayRecord
	Reset()
}

// RecordsPort pages through the processed log without server-side state
type RecordsPort interface {
	Page(ctx context.Context, q RecordsQuery) ([]records.Record, records.Cursor, error)
}
