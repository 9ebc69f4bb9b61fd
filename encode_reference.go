package holdings

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// Reference is the reference data a replay needs, loaded from a JSONL file.
type Reference struct {
	Market   *MarketData
	Accounts *Accounts
	Fees     *FeeSchedule
}

// NewReference returns empty reference data.
func NewReference() *Reference {
	ref := &Reference{Market: NewMarketData(), Accounts: NewAccounts()}
	ref.Fees = NewFeeSchedule(ref.Accounts, ref.Market)
	return ref
}

// refLine has every field a reference line may carry, the "kind" field tells which ones are used.
type refLine struct {
	Kind string `json:"kind"`

	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Currency string `json:"currency"`
	Market   string `json:"market"`

	On    date.Date       `json:"date"`
	From  string          `json:"from"`
	To    string          `json:"to"`
	Rate  decimal.Decimal `json:"rate"`
	Price decimal.Decimal `json:"price"`

	Residence       string          `json:"residence"`
	FlatRate        decimal.Decimal `json:"flatRate"`
	LossOffsetYears int             `json:"lossOffsetYears"`
	CutoffMonth     int             `json:"cutoffMonth"`
	CutoffDay       int             `json:"cutoffDay"`
	ValidFrom       date.Date       `json:"validFrom"`
	ValidTo         date.Date       `json:"validTo"`

	Type    AccountType `json:"type"`
	Opened  date.Date   `json:"opened"`
	Broker  string      `json:"broker"`
	Product string      `json:"product"`
	Main    string      `json:"main"`
	Since   date.Date   `json:"since"`
}

func (ref *Reference) add(raw []byte, l refLine) error {
	switch l.Kind {
	case "currency":
		return ref.Market.AddCurrency(CurrencyDetails{ID: l.ID, Code: l.Code, Name: l.Name})
	case "security":
		return ref.Market.AddSecurity(SecurityDetails{ID: l.ID, Ticker: l.Ticker, Currency: l.Currency, Market: l.Market, Name: l.Name})
	case "rate":
		if l.On.IsZero() || l.From == "" || l.To == "" || !l.Rate.IsPositive() {
			return fmt.Errorf("rate needs a date, a from and to currency and a positive rate")
		}
		ref.Market.AddRate(l.From, l.To, l.On, l.Rate)
	case "price":
		if l.On.IsZero() || l.Ticker == "" || l.Price.IsNegative() {
			return fmt.Errorf("price needs a date, a ticker and a non negative price")
		}
		ref.Market.AddPrice(l.Ticker, l.On, l.Price)
	case "tax":
		return ref.Market.AddTax(TaxDetails{
			Residence:       l.Residence,
			FlatRate:        l.FlatRate,
			Currency:        l.Currency,
			LossOffsetYears: l.LossOffsetYears,
			CutoffMonth:     l.CutoffMonth,
			CutoffDay:       l.CutoffDay,
			Valid:           date.Range{From: l.ValidFrom, To: l.ValidTo},
		})
	case "account":
		if err := ref.Accounts.AddAccount(AccountDetails{ID: l.ID, Type: l.Type, Opened: l.Opened, Broker: l.Broker}); err != nil {
			return err
		}
		if l.Main != "" {
			ref.Accounts.SetMainAccount(l.ID, l.Main, l.Since)
		}
		if l.Product != "" {
			ref.Accounts.Associate(ProductAssociation{Account: l.ID, Broker: l.Broker, Product: l.Product, Since: l.Since})
		}
	case "fee":
		var rule FeeRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			return err
		}
		return ref.Fees.Add(rule)
	default:
		return fmt.Errorf("unknown reference kind %q", l.Kind)
	}
	return nil
}

// Decode reads reference data from a JSONL stream into ref.
//
// Each line is an object with a "kind" field: currency, security, rate,
// price, tax, account or fee. Currencies must be declared before the
// securities and rules using them.
func (ref *Reference) Decode(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var l refLine
		if err := json.Unmarshal(line, &l); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := ref.add(line, l); err != nil {
			return fmt.Errorf("line %d: invalid %s: %w", n, l.Kind, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from input: %w", err)
	}
	return nil
}

// DecodeReference reads reference data from a JSONL stream.
func DecodeReference(r io.Reader) (*Reference, error) {
	ref := NewReference()
	if err := ref.Decode(r); err != nil {
		return nil, err
	}
	return ref, nil
}

// EncodeRate writes a rate as a reference line.
func EncodeRate(w io.Writer, from, to string, on date.Date, rate decimal.Decimal) error {
	var o jsonObjectWriter
	o.Append("kind", "rate")
	o.Append("date", on)
	o.Append("from", from)
	o.Append("to", to)
	o.Append("rate", rate)
	data, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// RateImport describes where to find a rate series in a JSON document.
//
// Dates and Rates are JSONPath expressions returning lists of the same length.
type RateImport struct {
	From, To string
	Dates    string // e.g. "$.rates[*].date"
	Rates    string // e.g. "$.rates[*].value"
}

// ImportedRate is a rate read from a JSON document.
type ImportedRate struct {
	On   date.Date
	Rate decimal.Decimal
}

// ImportRates extracts a rate series from a JSON document.
func ImportRates(r io.Reader, spec RateImport) ([]ImportedRate, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("not a correct json: %w", err)
	}
	days, err := jsonList(spec.Dates, doc)
	if err != nil {
		return nil, err
	}
	rates, err := jsonList(spec.Rates, doc)
	if err != nil {
		return nil, err
	}
	if len(days) != len(rates) {
		return nil, fmt.Errorf("%q returned %d dates but %q returned %d rates", spec.Dates, len(days), spec.Rates, len(rates))
	}

	imported := make([]ImportedRate, 0, len(days))
	for i := range days {
		str, ok := days[i].(string)
		if !ok {
			return nil, fmt.Errorf("date #%d is not a string: %v", i, days[i])
		}
		on, err := date.Parse(str)
		if err != nil {
			return nil, err
		}
		rate, err := jsonDecimal(rates[i])
		if err != nil {
			return nil, fmt.Errorf("rate #%d: %w", i, err)
		}
		imported = append(imported, ImportedRate{On: on, Rate: rate})
	}
	return imported, nil
}

// jsonList evaluates path on doc and always returns a list.
func jsonList(path string, doc any) ([]any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a single value for definite paths.
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

func jsonDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %v", v)
	}
}
