package compliance

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scryptSalt is fixed so the same passphrase derives the same key across
// restarts. Deployments that rotate keys must rotate the passphrase.
var scryptSalt = []byte("toolgate-field-encryption-v1")

// Encryptor encrypts designated sensitive fields with AES-256-GCM.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor builds an encryptor from the configured key material. A
// 64-character hex string is used directly as the 32-byte key; anything else
// is treated as a passphrase and scrypt-derived into 32 bytes. An empty key
// is an error: there is no default key.
func NewEncryptor(keyMaterial string) (*Encryptor, error) {
	if keyMaterial == "" {
		return nil, fmt.Errorf("encryption key is not configured")
	}

	var key []byte
	if decoded, err := hex.DecodeString(keyMaterial); err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		derived, err := scrypt.Key([]byte(keyMaterial), scryptSalt, 1<<15, 8, 1, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
		key = derived
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals a plaintext value. The output is base64(nonce || ciphertext)
// so it survives JSON round-trips.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}
	if len(raw) < e.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext is too short")
	}
	nonce, ciphertext := raw[:e.aead.NonceSize()], raw[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plaintext), nil
}

// Pseudonymizer replaces personal identifiers with a keyed HMAC so the same
// input always maps to the same opaque token without being reversible.
type Pseudonymizer struct {
	salt []byte
}

// NewPseudonymizer builds a pseudonymizer from the configured salt. An empty
// salt is an error for the same reason an empty encryption key is.
func NewPseudonymizer(salt string) (*Pseudonymizer, error) {
	if salt == "" {
		return nil, fmt.Errorf("pseudonym salt is not configured")
	}
	return &Pseudonymizer{salt: []byte(salt)}, nil
}

// Pseudonymize maps a value to a stable opaque token.
func (p *Pseudonymizer) Pseudonymize(value string) string {
	mac := hmac.New(sha256.New, p.salt)
	mac.Write([]byte(value))
	return "pseu_" + hex.EncodeToString(mac.Sum(nil))[:24]
}
