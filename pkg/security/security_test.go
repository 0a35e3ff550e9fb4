package security

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherClampsCost(t *testing.T) {
	if c := NewBcryptHasher(4).Cost(); c != MinBcryptCost {
		t.Fatalf("expected cost %d, got %d", MinBcryptCost, c)
	}
	if c := NewBcryptHasher(99).Cost(); c != bcrypt.MaxCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.MaxCost, c)
	}
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(MinBcryptCost)
	hash, err := h.Hash("s3cret-Pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-Pass" {
		t.Fatal("expected password to be hashed")
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost < MinBcryptCost {
		t.Fatalf("expected cost >= %d, got %d", MinBcryptCost, cost)
	}
	if !h.Compare(hash, "s3cret-Pass") {
		t.Fatal("expected password to match")
	}
	if h.Compare(hash, "wrong") || h.Compare("not-a-hash", "s3cret-Pass") {
		t.Fatal("expected mismatch")
	}
}

func TestTokenIssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "distributorhub")
	token, exp, err := m.Issue("acc-1", "dist_abc", "DISTRIBUTOR")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(exp); d <= 0 || d > time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Role != "DISTRIBUTOR" || claims.Username != "dist_abc" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenParseRejects(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "distributorhub")
	token, _, err := m.Issue("acc-1", "dist_abc", "DISTRIBUTOR")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenManager("other-secret", time.Hour, "distributorhub")
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected bad signature to be rejected, got %v", err)
	}
	foreign := NewTokenManager("test-secret", time.Hour, "someone-else")
	if _, err := foreign.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong issuer to be rejected, got %v", err)
	}
	if _, err := m.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage to be rejected, got %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
