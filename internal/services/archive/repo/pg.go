// Package repo implements archive storage over Postgres and ClickHouse
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	perr "helix/internal/platform/errors"
	"helix/internal/platform/store"
	"helix/internal/services/archive/domain"
	records "helix/internal/services/records/domain"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS archived_records (
		id          uuid PRIMARY KEY,
		reader      text NOT NULL,
		ts          double precision NOT NULL,
		text_masked text NOT NULL,
		entities    jsonb NOT NULL,
		archived_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS archived_records_reader_ts_idx ON archived_records (reader, ts)`,
	`CREATE TABLE IF NOT EXISTS archive_cursors (
		reader     text PRIMARY KEY,
		log_offset bigint NOT NULL CHECK (log_offset >= 0),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
}

const recordCols = 5

type pg struct{ q store.RowQuerier }

// BindPG binds Storage to a querier; inside store.TxRunner.Tx that is the transaction
func BindPG(q store.RowQuerier) domain.Storage { return &pg{q: q} }

// EnsureSchema implements domain.Storage
func (s *pg) EnsureSchema(ctx context.Context) error {
	for _, ddl := range pgSchema {
		if _, err := s.q.Exec(ctx, ddl); err != nil {
			return perr.FromPostgres(err, "archive schema")
		}
	}
	return nil
}

// LoadCursor implements domain.Storage; an unknown reader starts at 0
func (s *pg) LoadCursor(ctx context.Context, reader string) (records.Cursor, error) {
	off, err := store.One(ctx, s.q, func(r store.Row) (int64, error) {
		var v int64
		return v, r.Scan(&v)
	}, `SELECT log_offset FROM archive_cursors WHERE reader = $1`, reader)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return records.Cursor{}, nil
	}
	if err != nil {
		return records.Cursor{}, perr.FromPostgres(err, "load archive cursor")
	}
	return records.Cursor{Offset: off}, nil
}

// InsertRecords implements domain.Storage
func (s *pg) InsertRecords(ctx context.Context, rs []domain.ArchivedRecord) error {
	if len(rs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO archived_records (id, reader, ts, text_masked, entities) VALUES `)

	args := make([]any, 0, len(rs)*recordCols)
	for i, r := range rs {
		ents := r.Entities
		if ents == nil {
			ents = []records.Entity{}
		}
		b, err := json.Marshal(ents)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode entities")
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*recordCols + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d::jsonb)", base, base+1, base+2, base+3, base+4)
		args = append(args, r.ID, r.Reader, r.Timestamp, r.Text, string(b))
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	if _, err := s.q.Exec(ctx, sb.String(), args...); err != nil {
		return perr.FromPostgres(err, "insert archived records")
	}
	return nil
}

// SaveCursor implements domain.Storage
func (s *pg) SaveCursor(ctx context.Context, reader string, cur records.Cursor) error {
	err := store.ExecOne(ctx, s.q, `INSERT INTO archive_cursors (reader, log_offset) VALUES ($1, $2)
		ON CONFLICT (reader) DO UPDATE SET log_offset = EXCLUDED.log_offset, updated_at = now()`,
		reader, cur.Offset)
	return perr.FromPostgres(err, "save archive cursor")
}
