package password_test

import (
	"errors"
	"quicktable/shared/password"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "validPassword123"},
		{name: "special characters", password: "P@ssw0rd!#$%^&*()"},
		{name: "unicode password", password: "пароль123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := password.Hash(tt.password)
			if err != nil {
				t.Fatalf("unexpected error hashing: %v", err)
			}

			if hash == tt.password {
				t.Error("hash should not equal the plain password")
			}

			if err := password.Verify(tt.password, hash); err != nil {
				t.Errorf("expected password to verify, got %v", err)
			}

			if err := password.Verify("wrong"+tt.password, hash); !errors.Is(err, password.ErrInvalidPassword) {
				t.Errorf("expected ErrInvalidPassword, got %v", err)
			}
		})
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := password.Hash(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	if err := password.Verify("", "hash"); !errors.Is(err, password.ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}

	if err := password.Verify("password", ""); !errors.Is(err, password.ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}
