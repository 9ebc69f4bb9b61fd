package holdings

import (
	"slices"
	"time"

	"github.com/etnz/holdings/date"
)

// LossExpiry returns the day a loss realized on origin stops being usable.
//
// Losses are carried forward offsetYears years counted from the first cutoff
// day (cutoffMonth, cutoffDay) on or after origin.
func LossExpiry(origin date.Date, cutoffMonth, cutoffDay, offsetYears int) date.Date {
	cutoff := date.New(origin.Year(), time.Month(cutoffMonth), cutoffDay)
	if cutoff.Before(origin) {
		cutoff = date.New(origin.Year()+1, time.Month(cutoffMonth), cutoffDay)
	}
	return cutoff.AddYears(offsetYears)
}

// LossUsable reports whether a loss realized on origin can still offset a gain realized on now.
func LossUsable(origin date.Date, cutoffMonth, cutoffDay, offsetYears int, now date.Date) bool {
	return now.Before(LossExpiry(origin, cutoffMonth, cutoffDay, offsetYears))
}

// LossUse is the part of a loss entry used to offset a gain.
type LossUse struct {
	Entry LossEntry `json:"entry"`
	Used  Money     `json:"used"`
}

// offsetLosses consumes the usable entries of pool, soonest expiry first, to
// reduce gain. Entries already expired on 'on' and met before the gain is
// fully offset are returned in expired.
func offsetLosses(pool []LossEntry, gain Money, on date.Date, tax TaxDetails) (left Money, used []LossUse, expired []LossEntry) {
	expiry := func(e LossEntry) date.Date {
		return LossExpiry(e.Origin, tax.CutoffMonth, tax.CutoffDay, tax.LossOffsetYears)
	}
	ordered := slices.Clone(pool)
	slices.SortStableFunc(ordered, func(a, b LossEntry) int { return expiry(a).Compare(expiry(b)) })

	left = gain
	for _, e := range ordered {
		if !left.IsPositive() {
			break
		}
		if !on.Before(expiry(e)) {
			expired = append(expired, e)
			continue
		}
		u := e.Amount.Min(left)
		used = append(used, LossUse{Entry: e, Used: u})
		left = left.Sub(u)
	}
	return left, used, expired
}
