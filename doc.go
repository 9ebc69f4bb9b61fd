// Package holdings replays a log of investment transactions across several
// accounts and keeps track of cash, open lots and tax pools.
//
// The main pieces are:
//   - Transactions: money in and out, entering and exiting positions, cash
//     and security transfers, fees. They are read from and written to JSONL.
//   - PositionTracker: the state of every account, updated by the Process*
//     methods and checked for sufficient holdings before each outflow.
//   - TaxCalculator: the tax effect of closing lots, with fee and loss offset
//     pools, and the special rules of Hungarian TBSZ accounts.
//   - Liquidator: the net value of all holdings if they were sold and brought
//     back to a single currency on a given day.
//
// Market data, account details and fee schedules are reached through the
// DataProvider, AccountProvider and FeeProvider interfaces. Reference, loaded
// from a JSONL file, provides in-memory implementations of all three.
//
// Lookups that find no data fail with an error matching ErrMissingData,
// invalid identifiers with ErrInvalidData.
package holdings
