package arrear

import (
	"sort"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/types"
)

// RolledUpUsage aggregates the raw usage of every [prev, cur) transition
// interval. Intervals without usage are omitted.
func (c *ContiguousInterval) RolledUpUsage() ([]usage.RolledUpUsage, error) {
	if err := c.checkBuilt(); err != nil {
		return nil, err
	}
	return c.rollUp(), nil
}

func (c *ContiguousInterval) rollUp() []usage.RolledUpUsage {
	transitions := c.transitionDates
	if len(transitions) < 2 || len(c.rawUsage) == 0 {
		return nil
	}

	// skip usage recorded before the first transition date
	pos := 0
	for pos < len(c.rawUsage) && rawDate(c.rawUsage[pos]).Before(transitions[0]) {
		pos++
	}
	if pos == len(c.rawUsage) || !rawDate(c.rawUsage[pos]).Before(transitions[len(transitions)-1]) {
		return nil
	}

	result := make([]usage.RolledUpUsage, 0)
	for i := 1; i < len(transitions); i++ {
		prevDate, curDate := transitions[i-1], transitions[i]

		amounts := make(map[string]int64)
		for pos < len(c.rawUsage) && rawDate(c.rawUsage[pos]).Before(curDate) {
			record := c.rawUsage[pos]
			amounts[record.UnitType] = c.combine(amounts[record.UnitType], record.Amount)
			pos++
		}

		if len(amounts) == 0 {
			continue
		}
		result = append(result, usage.RolledUpUsage{
			SubscriptionID: c.SubscriptionID(),
			Start:          prevDate,
			End:            curDate,
			Units:          sortedUnits(amounts),
		})
	}
	return result
}

// combine applies the usage type rule: capacity keeps the peak, consumables add up
func (c *ContiguousInterval) combine(current, amount int64) int64 {
	if c.usage.UsageType == types.USAGE_TYPE_CAPACITY {
		return max(current, amount)
	}
	return current + amount
}

func rawDate(record *usage.RawUsage) time.Time {
	return types.TruncateToDate(record.Date)
}

func sortedUnits(amounts map[string]int64) []usage.RolledUpUnit {
	units := make([]usage.RolledUpUnit, 0, len(amounts))
	for unit, amount := range amounts {
		units = append(units, usage.RolledUpUnit{UnitType: unit, Amount: amount})
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].UnitType < units[j].UnitType
	})
	return units
}
