// Package vault seals small payloads (presigned grants) with the application key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var ErrInvalidCipherText = errors.New("invalid cipher text")

func New(key []byte) Vault {
	return Vault{
		key: key,
	}
}

// Vault uses AES-GCM so a grant cannot be altered (for example its expiry)
// without failing to open.
type Vault struct {
	key []byte
}

func (v Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

func (v Vault) Encrypt(text []byte) ([]byte, error) {
	aead, err := v.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nonce, nonce, text, nil)

	return []byte(base64.RawURLEncoding.EncodeToString(sealed)), nil
}

func (v Vault) Decrypt(raw []byte) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, ErrInvalidCipherText
	}

	aead, err := v.aead()
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrInvalidCipherText
	}

	nonce, cipherText := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	text, err := aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, ErrInvalidCipherText
	}

	return text, nil
}
