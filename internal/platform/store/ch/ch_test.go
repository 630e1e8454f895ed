package ch

import (
	"context"
	"errors"
	"testing"

	"helix/internal/platform/testkit"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func TestOpen_BadDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "://nope"}); err == nil {
		t.Fatalf("expected dsn error")
	}
}

func TestOpen_TagsClientInfo(t *testing.T) {
	testkit.Serial(t)
	var seen *clickhouse.Options
	testkit.Swap(t, &openConn, func(o *clickhouse.Options) (driver.Conn, error) {
		seen = o
		return nil, errors.New("stop")
	})

	_, err := Open(context.Background(), Config{URL: "clickhouse://default:@localhost:9000/helix", Role: "archiver"})
	if err == nil {
		t.Fatalf("expected injected error")
	}
	if seen == nil || len(seen.Addr) != 1 || seen.Addr[0] != "localhost:9000" {
		t.Fatalf("dsn not parsed: %+v", seen)
	}
	if seen.Auth.Database != "helix" {
		t.Fatalf("database = %q", seen.Auth.Database)
	}
	var role string
	for _, p := range seen.ClientInfo.Products {
		if p.Name == "role" {
			role = p.Version
		}
	}
	if role != "archiver" {
		t.Fatalf("role product = %q", role)
	}
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("entity_mentions", []string{"ts", "entity", "label"})
	if got != "INSERT INTO entity_mentions (ts, entity, label)" {
		t.Fatalf("insertSQL = %q", got)
	}
	if got := insertSQL("t", nil); got != "INSERT INTO t" {
		t.Fatalf("insertSQL no cols = %q", got)
	}
}
