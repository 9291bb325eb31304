package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/shared"
)

var one = decimal.NewFromInt(1)

// Allocation is one role's integer share of a split
type Allocation struct {
	Role                PartyRole
	Fraction            decimal.Decimal
	Amount              int64
	IsRoundingRecipient bool
	RoundingCents       int64
}

// Split partitions grossMinorUnits across the positive shares.
//
// Every role receives floor(gross * fraction). Whatever the floors leave
// over goes to primary in full, so the amounts always sum to gross. The
// primary entry is flagged as rounding recipient only when that leftover is
// non-zero. Output order follows the input order, and zero-amount entries
// are kept; see DropZeroAmounts.
func Split(grossMinorUnits int64, shares Shares, primary PartyRole) ([]Allocation, error) {
	if grossMinorUnits < 0 {
		return nil, ErrInvalidAmount
	}

	active := shares.Positive()
	if len(active) == 0 {
		return nil, ErrNoParties
	}
	if _, ok := active.Get(primary); !ok {
		return nil, ErrUnknownPrimaryParty
	}
	if active.Total().GreaterThan(one) {
		return nil, shared.NewDomainError(CodeInvalidSplit, "shares cannot sum to more than 1")
	}

	gross := decimal.NewFromInt(grossMinorUnits)
	allocations := make([]Allocation, 0, len(active))
	seen := make(map[PartyRole]struct{}, len(active))
	primaryIdx := -1
	var allocated int64

	for _, sh := range active {
		if _, dup := seen[sh.Role]; dup {
			return nil, shared.NewDomainError(CodeInvalidSplit, fmt.Sprintf("role %s appears more than once", sh.Role))
		}
		seen[sh.Role] = struct{}{}

		floor := gross.Mul(sh.Fraction).Floor().IntPart()
		allocated += floor
		if sh.Role == primary {
			primaryIdx = len(allocations)
		}
		allocations = append(allocations, Allocation{
			Role:     sh.Role,
			Fraction: sh.Fraction,
			Amount:   floor,
		})
	}

	// floors never exceed gross while the fractions sum to at most one
	remainder := grossMinorUnits - allocated
	recipient := &allocations[primaryIdx]
	recipient.Amount += remainder
	recipient.RoundingCents = remainder
	recipient.IsRoundingRecipient = remainder > 0

	return allocations, nil
}

// DropZeroAmounts removes allocations that floored to nothing.
// The total is unchanged since only zero entries are removed.
func DropZeroAmounts(allocations []Allocation) []Allocation {
	out := make([]Allocation, 0, len(allocations))
	for _, a := range allocations {
		if a.Amount > 0 {
			out = append(out, a)
		}
	}
	return out
}

// TotalAmount sums the allocated minor units
func TotalAmount(allocations []Allocation) int64 {
	var total int64
	for _, a := range allocations {
		total += a.Amount
	}
	return total
}
