package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes the plain text password using bcrypt. A cost outside
// bcrypt's accepted range falls back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
