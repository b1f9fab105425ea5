package sync

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/existflow/mtc/internal/logger"
)

const (
	keySize          = 32 // AES-256
	nonceSize        = 12 // GCM standard nonce size
	saltSize         = 16
	pbkdf2Iterations = 100000

	envelopeVersion = 1
)

// Codec converts a serialized server container to the bytes kept remotely
type Codec interface {
	Encode(plain []byte) ([]byte, error)
	Decode(stored []byte) ([]byte, error)
}

// Plain stores snapshots as they are
type Plain struct{}

func (Plain) Encode(plain []byte) ([]byte, error)  { return plain, nil }
func (Plain) Decode(stored []byte) ([]byte, error) { return stored, nil }

// Sealed encrypts snapshots with a key derived from a passphrase. Every
// snapshot carries its own salt, so the passphrase is all a second machine
// needs.
type Sealed struct {
	passphrase string
}

// NewSealed returns a codec for passphrase
func NewSealed(passphrase string) (*Sealed, error) {
	if passphrase == "" {
		return nil, errors.New("empty sync passphrase")
	}
	return &Sealed{passphrase: passphrase}, nil
}

type envelope struct {
	Sealed int    `json:"mtc_sealed"`
	Salt   string `json:"salt"`
	Data   string `json:"data"`
}

// Encode seals plain into a JSON envelope
func (s *Sealed) Encode(plain []byte) ([]byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	data, err := NewCrypto(s.passphrase, salt).Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt snapshot: %w", err)
	}
	return json.Marshal(envelope{
		Sealed: envelopeVersion,
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Data:   data,
	})
}

// Decode opens an envelope. A snapshot that was never sealed is returned
// unchanged so encryption can be switched on for an existing remote.
func (s *Sealed) Decode(stored []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(stored), &env); err != nil || env.Sealed == 0 {
		logger.Warn("Remote snapshot is not sealed, reading it as plain JSON")
		return stored, nil
	}
	if env.Sealed != envelopeVersion {
		return nil, fmt.Errorf("unsupported snapshot envelope version %d", env.Sealed)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot salt: %w", err)
	}
	return NewCrypto(s.passphrase, salt).Decrypt(env.Data)
}

// Crypto handles encryption/decryption
type Crypto struct {
	key []byte
}

// NewCrypto creates a crypto instance with derived key from password
func NewCrypto(password string, salt []byte) *Crypto {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
	return &Crypto{key: key}
}

// GenerateSalt generates a random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Encrypt encrypts data using AES-256-GCM
func (c *Crypto) Encrypt(plaintext []byte) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// nonce is prepended to the ciphertext
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts data using AES-256-GCM
func (c *Crypto) Decrypt(encrypted string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("decryption failed: wrong passphrase or corrupted snapshot")
	}
	return plaintext, nil
}

func (c *Crypto) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
