package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrNotFound = errors.New("no verification code found, request a new one")
	ErrMismatch = errors.New("incorrect verification code")
)

const (
	codeTTL     = 10 * time.Minute
	verifiedTTL = 30 * time.Minute
	maxEntries  = 4096
)

// Store holds pending verification codes and recently verified emails.
// Entries expire on their own; nothing here survives a restart, which is
// acceptable for a verification flow.
type Store struct {
	codes    *expirable.LRU[string, string]
	verified *expirable.LRU[string, struct{}]
}

func NewStore() *Store {
	return &Store{
		codes:    expirable.NewLRU[string, string](maxEntries, nil, codeTTL),
		verified: expirable.NewLRU[string, struct{}](maxEntries, nil, verifiedTTL),
	}
}

// Issue generates a six-digit code for the email and stores it for the
// code TTL. A new code replaces any pending one.
func (s *Store) Issue(email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	s.codes.Add(email, code)
	return code, nil
}

// Verify checks the submitted code. On success the code is consumed and
// the email is marked verified for the verified TTL.
func (s *Store) Verify(email, code string) error {
	want, ok := s.codes.Get(email)
	if !ok {
		return ErrNotFound
	}
	if want != code {
		return ErrMismatch
	}

	s.codes.Remove(email)
	s.verified.Add(email, struct{}{})
	return nil
}

// IsVerified reports whether the email passed verification recently.
func (s *Store) IsVerified(email string) bool {
	_, ok := s.verified.Get(email)
	return ok
}

// Consume clears the verified mark after registration completes.
func (s *Store) Consume(email string) {
	s.verified.Remove(email)
}
