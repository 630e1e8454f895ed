package repo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	"helix/internal/services/records/domain"
)

// DefaultMaxLineBytes bounds a single record line; longer lines are skipped
const DefaultMaxLineBytes = 4 << 20

// Tailer reads complete lines appended after a cursor. It holds no position of its own
type Tailer struct {
	path    string
	maxLine int
	log     logger.Logger
}

var _ domain.TailerPort = (*Tailer)(nil)

// NewTailer returns a Tailer over path; maxLine <= 0 uses DefaultMaxLineBytes
func NewTailer(path string, maxLine int) *Tailer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Tailer{path: path, maxLine: maxLine, log: *logger.Named("records.tail")}
}

// Tail returns every complete record after cur
func (t *Tailer) Tail(ctx context.Context, cur domain.Cursor) ([]domain.Record, domain.Cursor, error) {
	return t.TailN(ctx, cur, 0)
}

// TailN returns at most n complete records after cur and the cursor just past the last consumed line.
// Malformed lines are consumed but not returned. It never waits for data
func (t *Tailer) TailN(ctx context.Context, cur domain.Cursor, n int) ([]domain.Record, domain.Cursor, error) {
	out := []domain.Record{}

	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, cur, nil
	}
	if err != nil {
		return out, cur, perr.Wrap(err, perr.ErrorCodeUnavailable, "open records log")
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return out, cur, perr.Wrap(err, perr.ErrorCodeUnavailable, "stat records log")
	}
	size := st.Size()

	if cur.Offset > size {
		t.log.Warn().Int64("cursor", cur.Offset).Int64("size", size).Msg("records log shrank; restarting from the beginning")
		cur.Offset = 0
	}
	if cur.Offset < 0 {
		cur.Offset = 0
	}
	if cur.Offset == size {
		return out, cur, nil
	}
	if _, err := f.Seek(cur.Offset, io.SeekStart); err != nil {
		return out, cur, perr.Wrap(err, perr.ErrorCodeUnavailable, "seek records log")
	}

	// read only up to the size observed above; later appends are picked up next call
	br := bufio.NewReaderSize(io.LimitReader(f, size-cur.Offset), 64<<10)
	off := cur.Offset
	for n <= 0 || len(out) < n {
		if err := ctx.Err(); err != nil {
			return out, domain.Cursor{Offset: off}, nil
		}
		line, consumed, complete, err := t.readLine(br)
		if !complete {
			// trailing partial line or EOF; leave it for the next call
			if err != nil && !errors.Is(err, io.EOF) {
				return out, domain.Cursor{Offset: off}, perr.Wrap(err, perr.ErrorCodeUnavailable, "read records log")
			}
			break
		}
		off += consumed

		if line == nil {
			t.log.Debug().Int64("offset", off-consumed).Int64("bytes", consumed).Msg("skipping oversized record line")
			continue
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := domain.ParseLine(line)
		if err != nil {
			t.log.Debug().Err(err).Int64("offset", off-consumed).Msg("skipping malformed record line")
			continue
		}
		out = append(out, rec)
	}
	return out, domain.Cursor{Offset: off}, nil
}

// readLine reads through the next '\n'. consumed counts every byte read including the newline.
// complete is false when input ended before a newline. line is nil for lines over maxLine
func (t *Tailer) readLine(br *bufio.Reader) (line []byte, consumed int64, complete bool, err error) {
	var buf []byte
	oversized := false
	for {
		chunk, rerr := br.ReadSlice('\n')
		consumed += int64(len(chunk))
		if !oversized {
			if len(buf)+len(chunk) > t.maxLine {
				oversized = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case rerr == nil:
			if oversized {
				return nil, consumed, true, nil
			}
			return buf, consumed, true, nil
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		default:
			return nil, consumed, false, rerr
		}
	}
}
