// Package inventory implements cumulative weighted-average costing. Each
// received line item folds into the running quantity/cost state for its item
// name; the average unit cost is total cost over current quantity, defined
// as zero when the quantity is zero.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// costScale bounds division results. Four decimal places keeps unit costs
// exact enough for 2dp interchange output without unbounded expansion.
const costScale = 4

// State is the running costing state for one item name.
type State struct {
	CurrentQuantity decimal.Decimal
	TotalReceived   decimal.Decimal
	TotalCost       decimal.Decimal
	AverageUnitCost decimal.Decimal
}

// ApplyReceipt folds one line item into the state. Negative quantities take
// the plain arithmetic result; returns and write-offs are not modeled here.
func ApplyReceipt(s State, line ledger.LineItem) State {
	next := State{
		CurrentQuantity: s.CurrentQuantity.Add(line.Quantity),
		TotalReceived:   s.TotalReceived.Add(line.Quantity),
		TotalCost:       s.TotalCost.Add(line.LineAmount),
	}
	next.AverageUnitCost = Average(next.TotalCost, next.CurrentQuantity)
	return next
}

// Average divides total cost by quantity, returning zero for a zero
// quantity.
func Average(totalCost, quantity decimal.Decimal) decimal.Decimal {
	if quantity.IsZero() {
		return decimal.Zero
	}
	return totalCost.DivRound(quantity, costScale)
}
