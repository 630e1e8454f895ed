package domain

import (
	"context"

	records "helix/internal/services/records/domain"
)

// Storage is the Postgres side of the archive, bound to one querier or transaction
type Storage interface {
	EnsureSchema(ctx context.Context) error
	LoadCursor(ctx context.Context, reader string) (records.Cursor, error)
	InsertRecords(ctx context.Context, rs []ArchivedRecord) error
	SaveCursor(ctx context.Context, reader string, cur records.Cursor) error
}

// Analytics is the ClickHouse side of the archive
type Analytics interface {
	EnsureSchema(ctx context.Context) error
	InsertMentions(ctx context.Context, ms []Mention) error
}
