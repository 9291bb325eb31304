package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// ServiceKeyVerifier checks back-office service credentials against a bcrypt hash
type ServiceKeyVerifier struct {
	hash []byte
}

// NewServiceKeyVerifier creates a verifier. An empty hash disables service keys.
func NewServiceKeyVerifier(hash string) *ServiceKeyVerifier {
	return &ServiceKeyVerifier{hash: []byte(hash)}
}

// Enabled reports whether a service key is configured
func (v *ServiceKeyVerifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

// Verify compares key with the configured hash
func (v *ServiceKeyVerifier) Verify(key string) bool {
	if !v.Enabled() || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(key)) == nil
}

// HashServiceKey produces the value for auth.service_key_hash
func HashServiceKey(key string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
