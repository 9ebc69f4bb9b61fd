package holdings

import (
	"errors"
	"fmt"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// CommandType is a typed string for identifying transaction kinds.
type CommandType string

// Command types used for identifying transactions.
const (
	CmdMoneyIn          CommandType = "money-in"
	CmdMoneyOut         CommandType = "money-out"
	CmdEnter            CommandType = "enter"
	CmdExit             CommandType = "exit"
	CmdTransferCash     CommandType = "transfer-cash"
	CmdTransferSecurity CommandType = "transfer-security"
	CmdFee              CommandType = "fee"
)

// Transaction is one entry of the transaction log.
//
// Each kind of transaction is its own type with the legs it requires as typed
// fields. Values built with the NewXxx constructors are valid.
type Transaction interface {
	What() CommandType // What returns the kind of the transaction.
	When() date.Date   // When returns the date on which the transaction occurred.
	Legs() []Leg       // Legs returns the asset movements of the transaction.
	Validate() error
}

// Direction of a leg.
type Direction int

const (
	Add Direction = iota + 1
	Take
)

func (d Direction) String() string {
	switch d {
	case Add:
		return "add"
	case Take:
		return "take"
	default:
		return "unknown"
	}
}

// Leg is a single movement of an asset in or out of an account.
type Leg struct {
	Direction Direction
	Amount    decimal.Decimal
	Asset     Asset
	Account   string
}

type baseCmd struct {
	Command CommandType `json:"command"`
	Date    date.Date   `json:"date"`
	Memo    string      `json:"memo,omitempty"`
}

func (t baseCmd) What() CommandType { return t.Command }
func (t baseCmd) When() date.Date   { return t.Date }

// Rationale returns the memo associated with the transaction.
func (t baseCmd) Rationale() string { return t.Memo }

func (t baseCmd) validate() error {
	if t.Date.IsZero() {
		return errors.New("date is missing")
	}
	return nil
}

func (t baseCmd) writeTo(w *jsonObjectWriter) {
	w.Append("command", t.Command)
	w.Append("date", t.Date)
	w.Optional("memo", t.Memo)
}

func validateAccount(role, account string) error {
	if account == "" {
		return fmt.Errorf("%s account is missing", role)
	}
	return nil
}

func validateAmount(role string, amount Money) error {
	if err := ValidateCurrency(amount.Currency()); err != nil {
		return fmt.Errorf("%s: %w", role, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be positive, got %s", role, amount.Amount())
	}
	return nil
}

func validateCount(security string, count Quantity) error {
	if security == "" {
		return errors.New("security ticker is missing")
	}
	if !count.IsPositive() {
		return fmt.Errorf("count must be positive, got %s", count)
	}
	return nil
}

func validateStrategy(strategy MatchingStrategy, selection []date.Date) error {
	switch strategy {
	case Unspecified:
		return errors.New("matching strategy is required")
	case Specific:
		if len(selection) == 0 {
			return errors.New("specific matching requires a lot selection")
		}
	case FIFO, LIFO:
	default:
		return fmt.Errorf("unsupported matching strategy %d", strategy)
	}
	return nil
}

func cashLeg(d Direction, account string, amount Money) Leg {
	return Leg{Direction: d, Amount: amount.Amount(), Asset: Cash(amount.Currency()), Account: account}
}

func securityLeg(d Direction, account, security string, count Quantity) Leg {
	return Leg{Direction: d, Amount: count.value, Asset: Security(security), Account: account}
}

// checked validates tx and returns it, or the zero value with the validation error.
func checked[T Transaction](tx T) (T, error) {
	if err := tx.Validate(); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid %s transaction on %s: %w", tx.What(), tx.When(), err)
	}
	return tx, nil
}

// --- MoneyIn ---

// MoneyIn is cash deposited into an account from outside.
type MoneyIn struct {
	baseCmd
	Account string
	Amount  Money
}

// NewMoneyIn creates a valid MoneyIn transaction.
func NewMoneyIn(on date.Date, memo, account string, amount Money) (MoneyIn, error) {
	return checked(MoneyIn{baseCmd: baseCmd{Command: CmdMoneyIn, Date: on, Memo: memo}, Account: account, Amount: amount})
}

func (t MoneyIn) Validate() error {
	return errors.Join(t.validate(), validateAccount("destination", t.Account), validateAmount("amount", t.Amount))
}

func (t MoneyIn) Legs() []Leg { return []Leg{cashLeg(Add, t.Account, t.Amount)} }

func (t MoneyIn) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("account", t.Account)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

// --- MoneyOut ---

// MoneyOut is cash withdrawn from an account to outside.
type MoneyOut struct {
	baseCmd
	Account string
	Amount  Money
}

// NewMoneyOut creates a valid MoneyOut transaction.
func NewMoneyOut(on date.Date, memo, account string, amount Money) (MoneyOut, error) {
	return checked(MoneyOut{baseCmd: baseCmd{Command: CmdMoneyOut, Date: on, Memo: memo}, Account: account, Amount: amount})
}

func (t MoneyOut) Validate() error {
	return errors.Join(t.validate(), validateAccount("source", t.Account), validateAmount("amount", t.Amount))
}

func (t MoneyOut) Legs() []Leg { return []Leg{cashLeg(Take, t.Account, t.Amount)} }

func (t MoneyOut) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("account", t.Account)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

// --- EnterInvestment ---

// EnterInvestment is the purchase of Count units of Security for Cost.
type EnterInvestment struct {
	baseCmd
	Account  string
	Security string
	Count    Quantity
	Cost     Money
}

// NewEnterInvestment creates a valid EnterInvestment transaction.
func NewEnterInvestment(on date.Date, memo, account, security string, count Quantity, cost Money) (EnterInvestment, error) {
	return checked(EnterInvestment{
		baseCmd:  baseCmd{Command: CmdEnter, Date: on, Memo: memo},
		Account:  account,
		Security: security,
		Count:    count,
		Cost:     cost,
	})
}

func (t EnterInvestment) Validate() error {
	return errors.Join(t.validate(), validateAccount("investment", t.Account), validateCount(t.Security, t.Count), validateAmount("cost", t.Cost))
}

func (t EnterInvestment) Legs() []Leg {
	return []Leg{
		securityLeg(Add, t.Account, t.Security, t.Count),
		cashLeg(Take, t.Account, t.Cost),
	}
}

func (t EnterInvestment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("account", t.Account)
	w.Append("security", t.Security)
	w.Append("count", t.Count)
	w.EmbedFrom(t.Cost)
	return w.MarshalJSON()
}

// --- ExitInvestment ---

// ExitInvestment is the sale of Count units of Security for Proceeds.
type ExitInvestment struct {
	baseCmd
	Account   string
	Security  string
	Count     Quantity
	Proceeds  Money
	Strategy  MatchingStrategy
	Selection []date.Date // entry dates of the lots to sell, for Specific matching
}

// NewExitInvestment creates a valid ExitInvestment transaction.
func NewExitInvestment(on date.Date, memo, account, security string, count Quantity, proceeds Money, strategy MatchingStrategy, selection ...date.Date) (ExitInvestment, error) {
	return checked(ExitInvestment{
		baseCmd:   baseCmd{Command: CmdExit, Date: on, Memo: memo},
		Account:   account,
		Security:  security,
		Count:     count,
		Proceeds:  proceeds,
		Strategy:  strategy,
		Selection: selection,
	})
}

func (t ExitInvestment) Validate() error {
	return errors.Join(t.validate(), validateAccount("investment", t.Account), validateCount(t.Security, t.Count),
		validateAmount("proceeds", t.Proceeds), validateStrategy(t.Strategy, t.Selection))
}

func (t ExitInvestment) Legs() []Leg {
	return []Leg{
		securityLeg(Take, t.Account, t.Security, t.Count),
		cashLeg(Add, t.Account, t.Proceeds),
	}
}

func (t ExitInvestment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("account", t.Account)
	w.Append("security", t.Security)
	w.Append("count", t.Count)
	w.EmbedFrom(t.Proceeds)
	w.Append("strategy", t.Strategy)
	w.Optional("selection", t.Selection)
	return w.MarshalJSON()
}

// --- TransferCash ---

// TransferCash moves cash between two accounts.
type TransferCash struct {
	baseCmd
	From   string
	To     string
	Amount Money
}

// NewTransferCash creates a valid TransferCash transaction.
func NewTransferCash(on date.Date, memo, from, to string, amount Money) (TransferCash, error) {
	return checked(TransferCash{baseCmd: baseCmd{Command: CmdTransferCash, Date: on, Memo: memo}, From: from, To: to, Amount: amount})
}

func (t TransferCash) Validate() error {
	err := errors.Join(t.validate(), validateAccount("source", t.From), validateAccount("destination", t.To), validateAmount("amount", t.Amount))
	if err == nil && t.From == t.To {
		err = fmt.Errorf("cannot transfer from %q to itself", t.From)
	}
	return err
}

func (t TransferCash) Legs() []Leg {
	return []Leg{
		cashLeg(Take, t.From, t.Amount),
		cashLeg(Add, t.To, t.Amount),
	}
}

func (t TransferCash) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("from", t.From)
	w.Append("to", t.To)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}

// --- TransferSecurity ---

// TransferSecurity moves lots of a security between two accounts.
type TransferSecurity struct {
	baseCmd
	From      string
	To        string
	Security  string
	Count     Quantity
	Strategy  MatchingStrategy
	Selection []date.Date
}

// NewTransferSecurity creates a valid TransferSecurity transaction.
func NewTransferSecurity(on date.Date, memo, from, to, security string, count Quantity, strategy MatchingStrategy, selection ...date.Date) (TransferSecurity, error) {
	return checked(TransferSecurity{
		baseCmd:   baseCmd{Command: CmdTransferSecurity, Date: on, Memo: memo},
		From:      from,
		To:        to,
		Security:  security,
		Count:     count,
		Strategy:  strategy,
		Selection: selection,
	})
}

func (t TransferSecurity) Validate() error {
	err := errors.Join(t.validate(), validateAccount("source", t.From), validateAccount("destination", t.To),
		validateCount(t.Security, t.Count), validateStrategy(t.Strategy, t.Selection))
	if err == nil && t.From == t.To {
		err = fmt.Errorf("cannot transfer from %q to itself", t.From)
	}
	return err
}

func (t TransferSecurity) Legs() []Leg {
	return []Leg{
		securityLeg(Take, t.From, t.Security, t.Count),
		securityLeg(Add, t.To, t.Security, t.Count),
	}
}

func (t TransferSecurity) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("from", t.From)
	w.Append("to", t.To)
	w.Append("security", t.Security)
	w.Append("count", t.Count)
	w.Append("strategy", t.Strategy)
	w.Optional("selection", t.Selection)
	return w.MarshalJSON()
}

// --- PayFee ---

// PayFee is a fee charged to an account by its broker.
type PayFee struct {
	baseCmd
	Account string
	Amount  Money
}

// NewPayFee creates a valid PayFee transaction.
func NewPayFee(on date.Date, memo, account string, amount Money) (PayFee, error) {
	return checked(PayFee{baseCmd: baseCmd{Command: CmdFee, Date: on, Memo: memo}, Account: account, Amount: amount})
}

func (t PayFee) Validate() error {
	return errors.Join(t.validate(), validateAccount("charged", t.Account), validateAmount("fee", t.Amount))
}

func (t PayFee) Legs() []Leg { return []Leg{cashLeg(Take, t.Account, t.Amount)} }

func (t PayFee) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.writeTo(&w)
	w.Append("account", t.Account)
	w.EmbedFrom(t.Amount)
	return w.MarshalJSON()
}
