package holdings

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/etnz/holdings/date"
)

// txLine has every field a transaction line may carry.
type txLine struct {
	baseCmd
	amountCmd
	Account   string           `json:"account"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Security  string           `json:"security"`
	Count     Quantity         `json:"count"`
	Strategy  MatchingStrategy `json:"strategy"`
	Selection []date.Date      `json:"selection"`
}

func (l txLine) transaction() (Transaction, error) {
	on, memo := l.Date, l.Memo
	switch l.Command {
	case CmdMoneyIn:
		return NewMoneyIn(on, memo, l.Account, l.Money())
	case CmdMoneyOut:
		return NewMoneyOut(on, memo, l.Account, l.Money())
	case CmdEnter:
		return NewEnterInvestment(on, memo, l.Account, l.Security, l.Count, l.Money())
	case CmdExit:
		return NewExitInvestment(on, memo, l.Account, l.Security, l.Count, l.Money(), l.Strategy, l.Selection...)
	case CmdTransferCash:
		return NewTransferCash(on, memo, l.From, l.To, l.Money())
	case CmdTransferSecurity:
		return NewTransferSecurity(on, memo, l.From, l.To, l.Security, l.Count, l.Strategy, l.Selection...)
	case CmdFee:
		return NewPayFee(on, memo, l.Account, l.Money())
	default:
		return nil, fmt.Errorf("unknown transaction command: %q", l.Command)
	}
}

// DecodeTransactions reads a JSONL transaction log, one transaction per line.
//
// Transactions are validated and returned sorted by date. The sort is stable:
// transactions of the same day keep the order of the log.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var l txLine
		if err := json.Unmarshal(line, &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		tx, err := l.transaction()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	slices.SortStableFunc(txs, func(a, b Transaction) int { return a.When().Compare(b.When()) })
	return txs, nil
}

// EncodeTransaction writes tx as a single JSON line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeTransactions writes txs in JSONL format, in the given order.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
