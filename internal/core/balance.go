package core

import "math"

// TotalPaid sums payment amounts in exact cent arithmetic. An empty
// slice totals zero. Rather than wrapping silently on absurd inputs it
// reports ErrAmountOverflow.
func TotalPaid(payments []Payment) (Money, error) {
	var sum int64
	for _, p := range payments {
		if p.Amount.Cents > math.MaxInt64-sum {
			return Money{}, ErrAmountOverflow
		}
		sum += p.Amount.Cents
	}
	return Money{Cents: sum}, nil
}

// RemainingDue is quotation minus total paid, unclamped: a negative
// result means the project is overpaid and reads as a credit balance.
func RemainingDue(quotation, totalPaid Money) Money {
	return Money{Cents: quotation.Cents - totalPaid.Cents}
}
