package payout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/shared"
)

// PartyRole identifies a participant in a receipt's distribution
type PartyRole string

const (
	RoleCreator  PartyRole = "creator"
	RoleLicensee PartyRole = "licensee"
	RolePlatform PartyRole = "platform"
)

// IsValid checks if the role is known
func (r PartyRole) IsValid() bool {
	switch r {
	case RoleCreator, RoleLicensee, RolePlatform:
		return true
	}
	return false
}

// String returns the string representation of PartyRole
func (r PartyRole) String() string {
	return string(r)
}

// ParsePartyRole normalizes a role name
func ParsePartyRole(s string) (PartyRole, error) {
	r := PartyRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError(CodeInvalidRole, fmt.Sprintf("unknown party role %q", s))
	}
	return r, nil
}

// Share is one role's fraction of a gross amount
type Share struct {
	Role     PartyRole
	Fraction decimal.Decimal
}

// Shares is an ordered role -> fraction mapping. Order is significant:
// allocations come back in the same order.
type Shares []Share

// Get returns the fraction for a role and whether it is present
func (s Shares) Get(role PartyRole) (decimal.Decimal, bool) {
	for _, sh := range s {
		if sh.Role == role {
			return sh.Fraction, true
		}
	}
	return decimal.Zero, false
}

// Positive returns the shares with a fraction strictly above zero
func (s Shares) Positive() Shares {
	out := make(Shares, 0, len(s))
	for _, sh := range s {
		if sh.Fraction.IsPositive() {
			out = append(out, sh)
		}
	}
	return out
}

// Total returns the sum of all fractions
func (s Shares) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sh := range s {
		total = total.Add(sh.Fraction)
	}
	return total
}

// SplitConfiguration is the transient input to a distribution
type SplitConfiguration struct {
	Shares  Shares
	Primary PartyRole
}

// DefaultSplit is the platform split used when a caller supplies none
func DefaultSplit() SplitConfiguration {
	return SplitConfiguration{
		Shares: Shares{
			{Role: RoleCreator, Fraction: decimal.RequireFromString("0.7")},
			{Role: RoleLicensee, Fraction: decimal.RequireFromString("0.3")},
		},
		Primary: RoleCreator,
	}
}

// Validate checks the configuration shape without computing allocations.
// Duplicate roles and fractions outside [0,1] are rejected.
func (c SplitConfiguration) Validate() error {
	seen := make(map[PartyRole]struct{}, len(c.Shares))
	for _, sh := range c.Shares {
		if !sh.Role.IsValid() {
			return shared.NewDomainError(CodeInvalidRole, fmt.Sprintf("unknown party role %q", sh.Role))
		}
		if _, dup := seen[sh.Role]; dup {
			return shared.NewDomainError(CodeInvalidSplit, fmt.Sprintf("role %s appears more than once", sh.Role))
		}
		seen[sh.Role] = struct{}{}
		if sh.Fraction.IsNegative() || sh.Fraction.GreaterThan(decimal.NewFromInt(1)) {
			return shared.NewDomainError(CodeInvalidSplit, fmt.Sprintf("share for %s must be between 0 and 1", sh.Role))
		}
	}
	positive := c.Shares.Positive()
	if len(positive) == 0 {
		return ErrNoParties
	}
	if f, ok := positive.Get(c.Primary); !ok || !f.IsPositive() {
		return ErrUnknownPrimaryParty
	}
	if positive.Total().GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewDomainError(CodeInvalidSplit, "shares cannot sum to more than 1")
	}
	return nil
}
