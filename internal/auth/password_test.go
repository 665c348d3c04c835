package auth

import (
	"errors"
	"strings"
	"testing"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4,
// the minimum allowed, so hashing takes milliseconds.
func newTestPasswordService() *PasswordService {
	return NewPasswordService(4)
}

func TestNewPasswordService_OutOfRangeCostFallsBack(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		if got := NewPasswordService(cost).Cost(); got != DefaultCost {
			t.Errorf("NewPasswordService(%d).Cost() = %d, want %d", cost, got, DefaultCost)
		}
	}
	if got := NewPasswordService(11).Cost(); got != 11 {
		t.Errorf("NewPasswordService(11).Cost() = %d, want 11", got)
	}
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should return an error for passwords longer than 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}
}

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("espresso-doppio")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "espresso-doppio"); err != nil {
		t.Errorf("Verify() should return nil for a correct password, got: %v", err)
	}
	if !ps.Matches(hash, "espresso-doppio") {
		t.Error("Matches() = false for the correct password")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("the-real-password")

	err := ps.Verify(hash, "the-wrong-password")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("Verify() error = %v, want ErrInvalidPassword", err)
	}
	if ps.Matches(hash, "the-wrong-password") {
		t.Error("Matches() = true for a wrong password")
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	err := ps.Verify("not-a-valid-bcrypt-hash", "password")
	if err == nil {
		t.Fatal("Verify() should return an error for a garbage hash")
	}
	if errors.Is(err, ErrInvalidPassword) {
		t.Error("a corrupt hash should not be reported as a plain mismatch")
	}
}

func TestVerify_EmptyHashNeverMatches(t *testing.T) {
	// Accounts created through GitHub sign-in have no password hash.
	ps := newTestPasswordService()
	if ps.Matches("", "") {
		t.Error("Matches(\"\", \"\") = true, want false")
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "café-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
