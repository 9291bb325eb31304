package payout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/royalty/backend/internal/domain/payout"
	"github.com/royalty/backend/internal/domain/shared/valueobject"
	"github.com/royalty/backend/internal/infrastructure/config"
)

// Settings carries the distribution policy resolved from configuration
type Settings struct {
	DefaultSplit     payout.SplitConfiguration
	PlatformUserID   uuid.UUID
	DefaultCurrency  valueobject.Currency
	DropZeroAmounts  bool
	IdempotencyTTL   time.Duration
	ArchivePrefix    string
	ArchiveURLExpiry time.Duration
}

// DefaultSettings returns the built-in policy: creator 0.7, licensee 0.3, JPY
func DefaultSettings() Settings {
	return Settings{
		DefaultSplit:     payout.DefaultSplit(),
		DefaultCurrency:  valueobject.DefaultCurrency,
		IdempotencyTTL:   24 * time.Hour,
		ArchivePrefix:    "payouts",
		ArchiveURLExpiry: 15 * time.Minute,
	}
}

// SettingsFromConfig resolves and validates the payout and storage sections
func SettingsFromConfig(p config.PayoutConfig, s config.StorageConfig) (Settings, error) {
	settings := DefaultSettings()

	if len(p.DefaultSplit) > 0 {
		shares := make(payout.Shares, 0, len(p.DefaultSplitOrder))
		for _, name := range p.DefaultSplitOrder {
			role, err := payout.ParsePartyRole(name)
			if err != nil {
				return Settings{}, fmt.Errorf("payout.default_split: %w", err)
			}
			shares = append(shares, payout.Share{Role: role, Fraction: decimal.NewFromFloat(p.DefaultSplit[name])})
		}
		settings.DefaultSplit.Shares = shares
	}
	if p.PrimaryRole != "" {
		role, err := payout.ParsePartyRole(p.PrimaryRole)
		if err != nil {
			return Settings{}, fmt.Errorf("payout.primary_role: %w", err)
		}
		settings.DefaultSplit.Primary = role
	}
	if err := settings.DefaultSplit.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid default split: %w", err)
	}

	if p.PlatformUserID != "" {
		id, err := uuid.Parse(strings.TrimSpace(p.PlatformUserID))
		if err != nil {
			return Settings{}, fmt.Errorf("payout.platform_user_id: %w", err)
		}
		settings.PlatformUserID = id
	}
	if p.DefaultCurrency != "" {
		cur, err := valueobject.ParseCurrency(p.DefaultCurrency)
		if err != nil {
			return Settings{}, fmt.Errorf("payout.default_currency: %w", err)
		}
		settings.DefaultCurrency = cur
	}
	settings.DropZeroAmounts = p.DropZeroAmounts
	if p.IdempotencyTTL > 0 {
		settings.IdempotencyTTL = p.IdempotencyTTL
	}
	if s.KeyPrefix != "" {
		settings.ArchivePrefix = strings.Trim(s.KeyPrefix, "/")
	}
	if s.PresignExpiration > 0 {
		settings.ArchiveURLExpiry = s.PresignExpiration
	}
	return settings, nil
}
