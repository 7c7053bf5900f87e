package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// BlockSize is the AES block size; it also bounds the trailing pad length.
const BlockSize = aes.BlockSize

// DefaultKey is the key the quiz service uses for question text and options.
const DefaultKey = "ZDBmMTNiZGI3MDRhMWVhMWE3MTcwNjJiNTk0NzY0ODg"

var (
	ErrEmptyKey   = errors.New("cipher: key is empty")
	ErrDecryption = errors.New("cipher: decryption failed")
)

// DecryptionError describes why a ciphertext could not be decrypted.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt: %s: %v", e.Reason, e.Err)
	}
	return "decrypt: " + e.Reason
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryption
}

// Codec decrypts AES/ECB ciphertexts carrying a trailing length-byte pad.
type Codec struct {
	block stdcipher.Block
}

func NewCodec(keyBase64 string) (*Codec, error) {
	if keyBase64 == "" {
		return nil, ErrEmptyKey
	}

	key, err := base64.StdEncoding.DecodeString(FixPadding(keyBase64))
	if err != nil {
		return nil, fmt.Errorf("cipher: decode key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	return &Codec{block: block}, nil
}

// Decrypt returns the UTF-8 plaintext for a base64 ciphertext. Every failure
// matches ErrDecryption.
func (c *Codec) Decrypt(ciphertextBase64 string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(FixPadding(ciphertextBase64))
	if err != nil {
		return "", &DecryptionError{Reason: "invalid base64", Err: err}
	}
	if len(ciphertext)%BlockSize != 0 {
		return "", &DecryptionError{Reason: fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(ciphertext), BlockSize)}
	}

	plain := make([]byte, len(ciphertext))
	for start := 0; start < len(ciphertext); start += BlockSize {
		c.block.Decrypt(plain[start:start+BlockSize], ciphertext[start:start+BlockSize])
	}

	unpadded, err := Unpad(plain, BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(unpadded) {
		return "", &DecryptionError{Reason: "plaintext is not valid UTF-8"}
	}
	return string(unpadded), nil
}

// FixPadding drops characters outside the base64 alphabet and pads with '='
// to a multiple of four.
func FixPadding(s string) string {
	var builder strings.Builder
	builder.Grow(len(s) + 3)
	for idx := 0; idx < len(s); idx++ {
		if isBase64Char(s[idx]) {
			builder.WriteByte(s[idx])
		}
	}

	if missing := (4 - builder.Len()%4) % 4; missing > 0 {
		builder.WriteString(strings.Repeat("=", missing))
	}
	return builder.String()
}

// Unpad strips the pad whose length is stored in the last byte of data.
func Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, &DecryptionError{Reason: "data is empty"}
	}

	padLength := int(data[len(data)-1])
	if padLength < 1 || padLength > blockSize || padLength > len(data) {
		return nil, &DecryptionError{Reason: fmt.Sprintf("invalid padding length %d", padLength)}
	}
	return data[:len(data)-padLength], nil
}

func isBase64Char(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '+', b == '/', b == '=':
		return true
	}
	return false
}
