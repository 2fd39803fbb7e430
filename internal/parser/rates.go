package parser

import (
	"errors"
	"fmt"
)

var defaultRates = []int{51, 51, 39, 25, 25, 25, 13, 10, 10, 3, 1, 1, 1, 1}

// RateTable maps a slot ordinal to its encounter weight. Total is the
// divisor used for percentages; zero means the sum of Weights.
type RateTable struct {
	Weights []int
	Total   int
}

func DefaultRateTable() RateTable {
	return NewRateTable(defaultRates, 0)
}

func NewRateTable(weights []int, total int) RateTable {
	w := make([]int, len(weights))
	copy(w, weights)
	return RateTable{Weights: w, Total: total}
}

func (t RateTable) Len() int { return len(t.Weights) }

func (t RateTable) Sum() int {
	sum := 0
	for _, w := range t.Weights {
		sum += w
	}
	return sum
}

func (t RateTable) Divisor() int {
	if t.Total > 0 {
		return t.Total
	}
	return t.Sum()
}

// Balanced reports whether the percentages of all slots add up to 100.
func (t RateTable) Balanced() bool {
	return t.Divisor() == t.Sum()
}

func (t RateTable) Rate(ordinal int) int {
	if ordinal < 0 || ordinal >= len(t.Weights) {
		return 0
	}
	return t.Weights[ordinal]
}

func (t RateTable) Percentage(ordinal int) float64 {
	div := t.Divisor()
	if div <= 0 {
		return 0
	}
	return 100 * float64(t.Rate(ordinal)) / float64(div)
}

func (t RateTable) Validate() error {
	if len(t.Weights) == 0 {
		return errors.New("rate table is empty")
	}
	for i, w := range t.Weights {
		if w <= 0 {
			return fmt.Errorf("rate table slot %d: weight must be positive, got %d", i, w)
		}
	}
	if t.Total < 0 {
		return fmt.Errorf("rate total must not be negative, got %d", t.Total)
	}
	return nil
}
