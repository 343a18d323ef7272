// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"time"

	"github.com/tuxedo-labs/tuxedo/config"
)

func newSyncTicker(cfg config.Config) *time.Ticker {
	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return time.NewTicker(interval)
}
