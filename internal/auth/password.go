// Package auth provides the opaque credential and session capabilities the
// account security engine depends on: password hashing/verification and
// signed session token issuance. The engine treats both as black boxes; the
// concrete primitives live only here.
package auth

import "golang.org/x/crypto/bcrypt"

// Hasher is the credential capability: hash a plaintext password and verify
// a plaintext against a stored hash.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher implements Hasher with the bcrypt KDF.
type BcryptHasher struct {
	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost.
	Cost int
}

// Hash returns the bcrypt hash of plain.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches the stored bcrypt hash. Any error,
// including a malformed hash, is a mismatch.
func (h BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
