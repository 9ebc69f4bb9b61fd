package cmd

import (
	"context"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/date"
)

// replay loads the ledger and the reference data, and replays the
// transactions up to day 'on'.
func (c *Config) replay(ctx context.Context, on date.Date) (*holdings.PositionTracker, *holdings.Reference, error) {
	log := NewLogger("replay", c.LogLevel)

	ref, err := c.loadReference()
	if err != nil {
		return nil, nil, err
	}
	txs, err := c.loadLedger()
	if err != nil {
		return nil, nil, err
	}
	txs = until(txs, on)
	log.Debug().Int("transactions", len(txs)).Stringer("date", on).Msg("ledger loaded")

	r := holdings.NewReplayer(ref.Market, ref.Accounts)
	r.Log = log
	r.Tax.Log = log
	tracker := holdings.NewPositionTracker()
	if err := r.Replay(ctx, tracker, txs, c.Residence); err != nil {
		return nil, nil, err
	}
	return tracker, ref, nil
}
