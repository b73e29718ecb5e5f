package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lumiere/internal/model"
)

// PINLength is the number of digits in a station PIN.
const PINLength = 4

// DefaultPINs are used for roles without a configured PIN.
var DefaultPINs = map[model.Role]string{
	model.RoleCashier:   "1234",
	model.RoleKitchen:   "5678",
	model.RoleAnalytics: "9999",
	model.RoleAdmin:     "0000",
}

// PINSet holds one bcrypt hash per role. The plain PINs are not kept.
type PINSet struct {
	hashes map[model.Role][]byte
}

// NewPINSet hashes pins. Roles missing from pins get their default PIN.
func NewPINSet(pins map[model.Role]string) (*PINSet, error) {
	set := &PINSet{hashes: make(map[model.Role][]byte, len(model.Roles))}
	for _, role := range model.Roles {
		pin, ok := pins[role]
		if !ok || pin == "" {
			pin = DefaultPINs[role]
		}
		if !ValidPIN(pin) {
			return nil, fmt.Errorf("%s PIN must be %d digits", role, PINLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing %s PIN: %w", role, err)
		}
		set.hashes[role] = hash
	}
	return set, nil
}

// Check reports whether pin unlocks role.
func (s *PINSet) Check(role model.Role, pin string) bool {
	hash, ok := s.hashes[role]
	if !ok || !ValidPIN(pin) {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pin)) == nil
}

// ValidPIN reports whether pin is exactly PINLength ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
