package holdings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Replayer folds a transaction log into a PositionTracker.
type Replayer struct {
	Data DataProvider
	Tax  *TaxCalculator
	Log  zerolog.Logger
}

// NewReplayer returns a Replayer computing taxes with the default TaxCalculator.
func NewReplayer(data DataProvider, accounts AccountProvider) *Replayer {
	return &Replayer{Data: data, Tax: NewTaxCalculator(data, accounts), Log: zerolog.Nop()}
}

// Replay applies txs, in the given order, to tracker. Taxes are computed
// under the rules of residence and paid on every exit.
//
// Transactions must be ordered by date for each account. The first failure
// aborts the replay, the tracker must then be discarded.
func (r *Replayer) Replay(ctx context.Context, tracker *PositionTracker, txs []Transaction, residence string) (err error) {
	defer recoverFault(&err)

	log := r.Log.With().Str("run", uuid.NewString()).Logger()
	res := newResolver(r.Data)
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := res.resolve(ctx, tx.Legs()); err != nil {
			return fmt.Errorf("transaction #%d %s on %s: %w", i, tx.What(), tx.When(), err)
		}
		if err := r.apply(ctx, tracker, tx, residence); err != nil {
			return fmt.Errorf("transaction #%d %s on %s: %w", i, tx.What(), tx.When(), err)
		}
		log.Debug().Int("index", i).Str("command", string(tx.What())).Stringer("date", tx.When()).Msg("applied")
	}
	log.Info().Int("transactions", len(txs)).Int("accounts", len(tracker.Accounts())).Msg("replayed")
	return nil
}

func (r *Replayer) apply(ctx context.Context, tracker *PositionTracker, tx Transaction, residence string) error {
	switch v := tx.(type) {
	case MoneyIn:
		tracker.ProcessMoneyIn(v.Date, v.Account, v.Amount)
	case MoneyOut:
		tracker.ProcessMoneyOut(v.Date, v.Account, v.Amount)
	case EnterInvestment:
		tracker.ProcessEnterInvestment(v.Date, v.Account, v.Security, v.Count, v.Cost)
	case ExitInvestment:
		closed, err := tracker.MatchLots(v.Account, v.Security, v.Count, v.Strategy, v.Selection)
		if err != nil {
			return err
		}
		effect, err := r.Tax.TaxEffect(ctx, tracker, closed, v.Date, v.Account, v.Proceeds, residence)
		if err != nil {
			return err
		}
		if err := tracker.ProcessExitInvestment(v.Date, v.Account, v.Security, v.Count, v.Proceeds, v.Strategy, v.Selection); err != nil {
			return err
		}
		tracker.ProcessTax(v.Date, v.Account, effect)
	case TransferCash:
		return tracker.ProcessTransferCash(v.Date, v.From, v.To, v.Amount)
	case TransferSecurity:
		return tracker.ProcessTransferSecurity(v.Date, v.From, v.To, v.Security, v.Count, v.Strategy, v.Selection)
	case PayFee:
		deductible, err := r.Tax.CashInTaxCurrency(ctx, v.Amount, v.Date, residence)
		if err != nil {
			return err
		}
		tracker.ProcessFee(v.Date, v.Account, v.Amount, deductible)
	default:
		return fmt.Errorf("unsupported transaction type %T", tx)
	}
	return nil
}
