package common

import (
	"sync/atomic"

	"github.com/kelpbot/engine/common/config"
)

// UsingSQLite, UsingPostgreSQL and UsingMySQL record which dialect the
// database actor opened, set once by model.OpenDB and read by the
// SQLite busy-retry wrapper.
var (
	UsingSQLite     atomic.Bool
	UsingPostgreSQL atomic.Bool
	UsingMySQL      atomic.Bool
)

var SQLitePath = config.SQLitePath
var SQLiteBusyTimeout = config.SQLiteBusyTimeout
