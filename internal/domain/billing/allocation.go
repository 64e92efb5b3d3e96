package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// Component identifies one charge bucket on a bill.
type Component string

const (
	ComponentRent        Component = "rent"
	ComponentElectricity Component = "electricity"
	ComponentWater       Component = "water"
	ComponentExtraFee    Component = "extra_fee"
	ComponentPenalty     Component = "penalty"
)

// IsValid checks if the component is valid
func (c Component) IsValid() bool {
	switch c {
	case ComponentRent, ComponentElectricity, ComponentWater, ComponentExtraFee, ComponentPenalty:
		return true
	}
	return false
}

// String returns the string representation
func (c Component) String() string {
	return string(c)
}

// AllComponents returns every charge component a bill can carry.
func AllComponents() []Component {
	return []Component{
		ComponentRent,
		ComponentElectricity,
		ComponentWater,
		ComponentExtraFee,
		ComponentPenalty,
	}
}

// AllocationPriority returns the order payments settle components in,
// highest priority first. Punitive and one-off charges clear before the
// recurring utility and rent balances.
func AllocationPriority() []Component {
	return []Component{
		ComponentPenalty,
		ComponentExtraFee,
		ComponentElectricity,
		ComponentWater,
		ComponentRent,
	}
}

// ComponentAmounts maps charge components to amounts. It carries both a
// bill's outstanding balances per component and the slice of a payment
// allocated to each.
type ComponentAmounts map[Component]decimal.Decimal

// Get returns the amount for a component, zero when absent.
func (a ComponentAmounts) Get(c Component) decimal.Decimal {
	if amount, ok := a[c]; ok {
		return amount
	}
	return decimal.Zero
}

// Total sums all component amounts.
func (a ComponentAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a {
		total = total.Add(amount)
	}
	return total
}

// Clone returns an independent copy.
func (a ComponentAmounts) Clone() ComponentAmounts {
	out := make(ComponentAmounts, len(a))
	for c, amount := range a {
		out[c] = amount
	}
	return out
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a ComponentAmounts) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *ComponentAmounts) Scan(value interface{}) error {
	if value == nil {
		*a = ComponentAmounts{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ComponentAmounts: unsupported type")
	}

	if len(bytes) == 0 {
		*a = ComponentAmounts{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// AllocatePayment distributes a received payment across a bill's outstanding
// component balances in priority order: each bucket takes the smaller of the
// remaining payment and its outstanding amount, and buckets the payment
// never reaches are allocated zero. The returned allocation always contains
// an entry for every component.
//
// A payment larger than the total outstanding leaves the excess unallocated,
// which ValidatePaymentAllocation then rejects; callers decide upfront
// whether to refuse such payments or cap them.
func AllocatePayment(outstanding ComponentAmounts, payment decimal.Decimal) (ComponentAmounts, error) {
	if payment.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Payment amount cannot be negative, got %s", payment))
	}
	for component, amount := range outstanding {
		if !component.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Unknown bill component %q", component))
		}
		if amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Outstanding amount for %s cannot be negative, got %s", component, amount))
		}
	}

	allocation := make(ComponentAmounts, len(AllocationPriority()))
	remaining := payment
	for _, component := range AllocationPriority() {
		if remaining.IsZero() {
			allocation[component] = decimal.Zero
			continue
		}
		slice := decimal.Min(remaining, outstanding.Get(component))
		allocation[component] = slice
		remaining = remaining.Sub(slice)
	}

	return allocation, nil
}

// ValidatePaymentAllocation reports whether an allocation accounts for the
// payment amount exactly. Currency amounts are fixed-precision decimals, so
// the comparison is strict equality with no tolerance. A false result is
// fatal to the enclosing transaction: the payment must not be recorded and
// the bill must not be updated.
func ValidatePaymentAllocation(allocation ComponentAmounts, paymentAmount decimal.Decimal) bool {
	return allocation.Total().Equal(paymentAmount)
}
