package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"moodtrack/internal/domain"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewFromSecret("test-secret", "test-salt")
	if err != nil {
		t.Fatalf("NewFromSecret: %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, plaintext := range []string{
		"oggi mi sento felice",
		"multi\nline\ntext",
		"emoji 😊 and accents àèì",
	} {
		ciphertext, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if bytes.Contains(ciphertext, []byte(plaintext)) {
			t.Errorf("ciphertext contains plaintext %q", plaintext)
		}
		got, err := c.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip: got %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptEmpty(t *testing.T) {
	c := newTestCodec(t)

	ciphertext, err := c.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt empty: %v", err)
	}
	if len(ciphertext) != 0 {
		t.Errorf("empty plaintext produced %d bytes of ciphertext", len(ciphertext))
	}
	got, err := c.Decrypt(nil)
	if err != nil {
		t.Fatalf("Decrypt empty: %v", err)
	}
	if got != "" {
		t.Errorf("Decrypt(nil) = %q, want empty", got)
	}
}

func TestEncryptNondeterministic(t *testing.T) {
	c := newTestCodec(t)

	a, _ := c.Encrypt("same text")
	b, _ := c.Encrypt("same text")
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same text are identical, nonce not fresh")
	}
}

func TestDecryptTampered(t *testing.T) {
	c := newTestCodec(t)

	ciphertext, err := c.Encrypt("sensitive text")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0x01
	if _, err := c.Decrypt(ciphertext); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Errorf("tampered ciphertext: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptShort(t *testing.T) {
	c := newTestCodec(t)

	if _, err := c.Decrypt([]byte{0x01, 0x02}); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Errorf("short ciphertext: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewFromSecret("other-secret", "test-salt")
	if err != nil {
		t.Fatalf("NewFromSecret: %v", err)
	}

	ciphertext, _ := c.Encrypt("sensitive text")
	if _, err := other.Decrypt(ciphertext); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Errorf("wrong key: got %v, want ErrDecryptionFailed", err)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New([]byte("too short")); err == nil {
		t.Error("New accepted a 9-byte key")
	}
	if _, err := NewFromSecret("", "salt"); err == nil {
		t.Error("NewFromSecret accepted an empty secret")
	}
}
