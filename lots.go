package holdings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/holdings/date"
	"github.com/shopspring/decimal"
)

// Lot represents a single acquisition of a security, used for cost basis calculations.
type Lot struct {
	Security string    `json:"security"`
	Count    Quantity  `json:"count"`
	Cost     Money     `json:"cost"` // Total cost of the lot (count * unit price)
	Entry    date.Date `json:"entry"`
}

// UnitCost returns the cost of a single unit of the lot.
func (l Lot) UnitCost() Money { return l.Cost.Div(l.Count) }

// split divides the lot into a part of 'count' units and the rest.
// Both parts keep the entry date, the cost is prorated so that both costs add up exactly.
func (l Lot) split(count Quantity) (taken, rest Lot) {
	taken, rest = l, l
	taken.Count = count
	taken.Cost = l.Cost.Mul(count).Div(l.Count)
	rest.Count = l.Count.Sub(count)
	rest.Cost = l.Cost.Sub(taken.Cost)
	return taken, rest
}

// Lots is a list of lots, in insertion order unless stated otherwise.
type Lots []Lot

// Count returns the total number of units in the lots.
func (l Lots) Count() Quantity {
	var total Quantity
	for _, lot := range l {
		total = total.Add(lot.Count)
	}
	return total
}

// Cost returns the total cost of the lots.
func (l Lots) Cost() Money {
	var total Money
	for _, lot := range l {
		total = total.Add(lot.Cost)
	}
	return total
}

// order returns the indexes of lots in the order they are consumed by strategy.
func (l Lots) order(strategy MatchingStrategy, selection []date.Date) ([]int, error) {
	fifo := make([]int, len(l))
	for i := range fifo {
		fifo[i] = i
	}
	// Stable: ties on the entry date keep the insertion order.
	slices.SortStableFunc(fifo, func(i, j int) int { return l[i].Entry.Compare(l[j].Entry) })

	switch strategy {
	case FIFO:
		return fifo, nil
	case LIFO:
		slices.Reverse(fifo)
		return fifo, nil
	case Specific:
		if len(selection) == 0 {
			return nil, errors.New("specific matching requires a lot selection")
		}
		var order []int
		for _, on := range selection {
			for _, i := range fifo {
				if l[i].Entry == on && !slices.Contains(order, i) {
					order = append(order, i)
				}
			}
		}
		return order, nil
	case Unspecified:
		return nil, errors.New("matching strategy is required")
	default:
		return nil, fmt.Errorf("unsupported matching strategy %d", strategy)
	}
}

// Match selects which lots are consumed when taking count units out of lots.
//
// consumed is in matching order, the boundary lot being split if count falls
// in the middle of it. residual holds what remains, in the original order.
// Taking more than the matchable lots hold is an *InsufficientPositionError.
func Match(lots []Lot, count Quantity, strategy MatchingStrategy, selection []date.Date) (consumed, residual []Lot, err error) {
	if !count.IsPositive() {
		return nil, nil, fmt.Errorf("cannot match a non positive count %s", count)
	}
	order, err := Lots(lots).order(strategy, selection)
	if err != nil {
		return nil, nil, err
	}

	var available Quantity
	for _, i := range order {
		available = available.Add(lots[i].Count)
	}
	if available.LessThan(count) {
		perr := &InsufficientPositionError{Requested: count.value, Available: available.value}
		if len(lots) > 0 {
			perr.Asset = Security(lots[0].Security)
		}
		return nil, nil, perr
	}

	// remaining[i] is what is left of lots[i] after matching, nil when fully consumed.
	remaining := make([]*Lot, len(lots))
	for i := range lots {
		remaining[i] = &lots[i]
	}
	for _, i := range order {
		if count.IsZero() {
			break
		}
		lot := lots[i]
		if !lot.Count.GreaterThan(count) {
			consumed = append(consumed, lot)
			count = count.Sub(lot.Count)
			remaining[i] = nil
			continue
		}
		taken, rest := lot.split(count)
		consumed = append(consumed, taken)
		remaining[i] = &rest
		count = Q(decimal.Zero)
	}
	for _, lot := range remaining {
		if lot != nil {
			residual = append(residual, *lot)
		}
	}
	return consumed, residual, nil
}
