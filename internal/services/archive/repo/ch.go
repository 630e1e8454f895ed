package repo

import (
	"context"

	perr "helix/internal/platform/errors"
	"helix/internal/platform/store"
	"helix/internal/services/archive/domain"
)

const mentionsTable = "entity_mentions"

var mentionCols = []string{"id", "record_id", "reader", "ts", "entity", "label", "score", "span_start", "span_end"}

const chSchema = `CREATE TABLE IF NOT EXISTS entity_mentions (
	id         UUID,
	record_id  UUID,
	reader     LowCardinality(String),
	ts         DateTime64(3, 'UTC'),
	entity     String,
	label      LowCardinality(String),
	score      Float64,
	span_start Int32,
	span_end   Int32
) ENGINE = MergeTree
ORDER BY (label, ts, record_id)`

type ch struct{ c store.Clickhouse }

// NewCH returns the ClickHouse side of the archive
func NewCH(c store.Clickhouse) domain.Analytics { return &ch{c: c} }

// EnsureSchema implements domain.Analytics
func (s *ch) EnsureSchema(ctx context.Context) error {
	return perr.WrapIf(s.c.Exec(ctx, chSchema), perr.ErrorCodeDB, "clickhouse schema")
}

// InsertMentions implements domain.Analytics
func (s *ch) InsertMentions(ctx context.Context, ms []domain.Mention) error {
	if len(ms) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []any{m.ID, m.RecordID, m.Reader, m.At, m.Entity, m.Label, m.Score, m.Start, m.End})
	}
	return perr.WrapIf(s.c.InsertRows(ctx, mentionsTable, mentionCols, rows), perr.ErrorCodeDB, "insert entity mentions")
}
