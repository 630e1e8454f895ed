package modkit

import (
	"helix/internal/platform/config"
	"helix/internal/platform/logger"
	"helix/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are nil unless the binary opened them
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}
