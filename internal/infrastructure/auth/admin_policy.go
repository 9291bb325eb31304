package auth

import (
	"strings"

	"github.com/royalty/backend/internal/infrastructure/config"
)

// AdminPolicy decides who may use admin routes. It is built once from
// configuration and handed to the middleware that needs it.
type AdminPolicy struct {
	emails  map[string]struct{}
	userIDs map[string]struct{}
}

// NewAdminPolicy builds the allowlists; emails compare case-insensitively
func NewAdminPolicy(cfg config.AuthConfig) *AdminPolicy {
	p := &AdminPolicy{
		emails:  make(map[string]struct{}, len(cfg.AdminEmails)),
		userIDs: make(map[string]struct{}, len(cfg.AdminUserIDs)),
	}
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	for _, id := range cfg.AdminUserIDs {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			p.userIDs[id] = struct{}{}
		}
	}
	return p
}

// IsAdmin reports whether the claims carry the admin role or match an allowlist entry
func (p *AdminPolicy) IsAdmin(claims *Claims) bool {
	if claims == nil {
		return false
	}
	if claims.Role == RoleAdmin {
		return true
	}
	if p == nil {
		return false
	}
	if _, ok := p.userIDs[strings.ToLower(claims.UserID)]; ok {
		return true
	}
	if claims.Email != "" {
		if _, ok := p.emails[strings.ToLower(claims.Email)]; ok {
			return true
		}
	}
	return false
}
