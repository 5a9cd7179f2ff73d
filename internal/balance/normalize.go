// Package balance talks to the upstream resource service and maps its
// heterogeneous balance-inquiry payload into a canonical item list.
package balance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Item kinds. The kind is decided by which upstream collection a record came
// from, never by inspecting its fields.
const (
	KindSavings = "savings"
	KindTerm    = "term"
)

// Item is a normalized balance entry returned to the browser.
type Item struct {
	Kind      string  `json:"kind"`
	Amount    float64 `json:"amount"`
	AccountID string  `json:"accountId,omitempty"`
}

// Document is the upstream balance-inquiry payload. Numeric fields are typed
// loosely on purpose: the coercion policy lives in toNumber, not in the
// decoder.
type Document struct {
	Owner        string    `json:"owner"`
	Savings      []Account `json:"savings"`
	TimeDeposits []Account `json:"timeDeposits"`
}

// Account is one upstream record from either collection.
type Account struct {
	ID        string `json:"id"`
	AccountNo string `json:"accountNo"`
	Balance   any    `json:"balance"`
	Principal any    `json:"principal"`
}

// Normalize flattens a document into the canonical list: all savings entries
// in source order, then all time-deposit entries in source order. Term
// entries use the balance when it is non-null, otherwise the principal.
func Normalize(doc Document) []Item {
	items := make([]Item, 0, len(doc.Savings)+len(doc.TimeDeposits))
	for _, a := range doc.Savings {
		items = append(items, Item{
			Kind:      KindSavings,
			Amount:    toNumber(a.Balance),
			AccountID: accountID(a),
		})
	}
	for _, a := range doc.TimeDeposits {
		amount := toNumber(a.Principal)
		if a.Balance != nil {
			amount = toNumber(a.Balance)
		}
		items = append(items, Item{
			Kind:      KindTerm,
			Amount:    amount,
			AccountID: accountID(a),
		})
	}
	return items
}

func accountID(a Account) string {
	if a.AccountNo != "" {
		return a.AccountNo
	}
	return a.ID
}

// toNumber coerces an upstream JSON value to a finite number, substituting 0
// for anything missing, non-numeric, or non-finite.
func toNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
