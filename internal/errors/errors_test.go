package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCryptoError(t *testing.T) {
	baseErr := errors.New("base error")
	cerr := NewCryptoError("symmetric-decrypt", baseErr)

	errStr := cerr.Error()
	if !strings.Contains(errStr, "symmetric-decrypt") {
		t.Errorf("Error string should contain operation: %q", errStr)
	}
	if !strings.Contains(errStr, "base error") {
		t.Errorf("Error string should contain base error: %q", errStr)
	}

	if unwrapped := cerr.Unwrap(); unwrapped != baseErr {
		t.Errorf("Unwrap() returned %v, want %v", unwrapped, baseErr)
	}

	if cerr.Op != "symmetric-decrypt" {
		t.Errorf("Op = %q, want %q", cerr.Op, "symmetric-decrypt")
	}
}

func TestRejectedError(t *testing.T) {
	err := Rejected("authenticator checksum mismatch")

	if !Is(err, ErrRejected) {
		t.Error("Rejected() result should match ErrRejected via Is")
	}

	var re *RejectedError
	if !As(err, &re) {
		t.Fatal("As() should extract *RejectedError")
	}
	if re.Reason != "authenticator checksum mismatch" {
		t.Errorf("Reason = %q, want %q", re.Reason, "authenticator checksum mismatch")
	}
	if !strings.Contains(err.Error(), "authenticator checksum mismatch") {
		t.Errorf("Error string missing reason: %q", err.Error())
	}
}

func TestNotAvailableError(t *testing.T) {
	err := NotAvailable("alice@kitchen-hub")

	if !Is(err, ErrNotAvailable) {
		t.Error("NotAvailable() result should match ErrNotAvailable via Is")
	}

	var nae *NotAvailableError
	if !As(err, &nae) {
		t.Fatal("As() should extract *NotAvailableError")
	}
	if nae.ID != "alice@kitchen-hub" {
		t.Errorf("ID = %q, want %q", nae.ID, "alice@kitchen-hub")
	}
}

func TestPermissionDeniedError(t *testing.T) {
	err := PermissionDenied("alice is not admin")

	if !Is(err, ErrPermissionDenied) {
		t.Error("PermissionDenied() result should match ErrPermissionDenied via Is")
	}

	var pde *PermissionDeniedError
	if !As(err, &pde) {
		t.Fatal("As() should extract *PermissionDeniedError")
	}
	if pde.Reason != "alice is not admin" {
		t.Errorf("Reason = %q, want %q", pde.Reason, "alice is not admin")
	}
}

func TestIsFunction(t *testing.T) {
	if !Is(ErrInvalidKeySize, ErrInvalidKeySize) {
		t.Error("Is() should return true for matching sentinel error")
	}

	wrapped := NewCryptoError("operation", ErrAuthenticationFailed)
	if !Is(wrapped, ErrAuthenticationFailed) {
		t.Error("Is() should return true for wrapped sentinel error")
	}

	if Is(ErrInvalidKeySize, ErrInvalidCiphertext) {
		t.Error("Is() should return false for non-matching error")
	}
}

func TestAsFunction(t *testing.T) {
	cerr := NewCryptoError("test-op", ErrCryptoFault)

	var target *CryptoError
	if !As(cerr, &target) {
		t.Fatal("As() should return true for matching type")
	}
	if target.Op != "test-op" {
		t.Errorf("As() extracted Op = %q, want %q", target.Op, "test-op")
	}

	var rejected *RejectedError
	if As(cerr, &rejected) {
		t.Error("As() should return false for non-matching type")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidKeySize", ErrInvalidKeySize},
		{"ErrInvalidCiphertext", ErrInvalidCiphertext},
		{"ErrAuthenticationFailed", ErrAuthenticationFailed},
		{"ErrInvalidPublicKey", ErrInvalidPublicKey},
		{"ErrInvalidPrivateKey", ErrInvalidPrivateKey},
		{"ErrInvalidMessage", ErrInvalidMessage},
		{"ErrMessageTooLarge", ErrMessageTooLarge},
		{"ErrNotAvailable", ErrNotAvailable},
		{"ErrRejected", ErrRejected},
		{"ErrSessionExpired", ErrSessionExpired},
		{"ErrPermissionDenied", ErrPermissionDenied},
		{"ErrCryptoFault", ErrCryptoFault},
		{"ErrEntryExists", ErrEntryExists},
		{"ErrEntryAbsent", ErrEntryAbsent},
		{"ErrStoreClosed", ErrStoreClosed},
		{"ErrPoolClosed", ErrPoolClosed},
		{"ErrPoolTimeout", ErrPoolTimeout},
		{"ErrInvalidState", ErrInvalidState},
		{"ErrBootstrapUnavailable", ErrBootstrapUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s.Error() returned empty string", tt.name)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := ErrInvalidKeySize
	wrapped := NewCryptoError("x25519-keygen", baseErr)

	if !errors.Is(wrapped, baseErr) {
		t.Error("wrapped error should match base error with errors.Is")
	}

	doubleWrapped := NewCryptoError("outer-op", wrapped)
	if !errors.Is(doubleWrapped, baseErr) {
		t.Error("double-wrapped error should still match base error")
	}

	var cryptoErr *CryptoError
	if !errors.As(doubleWrapped, &cryptoErr) {
		t.Fatal("should be able to extract CryptoError from double-wrapped")
	}
	if cryptoErr.Op != "outer-op" {
		t.Errorf("extracted Op = %q, want %q", cryptoErr.Op, "outer-op")
	}
}

func TestNilErrorHandling(t *testing.T) {
	if Is(nil, ErrInvalidKeySize) {
		t.Error("Is(nil, target) should return false")
	}

	var target *CryptoError
	if As(nil, &target) {
		t.Error("As(nil, target) should return false")
	}
}
