package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// Algorithm is the tag written as the first field of every hash string.
	Algorithm = "scrypt"

	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLength   = 16

	// Upper bounds applied when parsing stored hashes. scrypt needs
	// 128*N*r bytes, capped at maxMemory.
	maxN      = 1 << 17
	maxR      = 16
	maxP      = 16
	maxKeyLen = 256
	maxMemory = 64 << 20

	fieldCount = 6
	delimiter  = "$"
)

// ErrMalformedHash is returned by Parse when a hash string does not match
// the scrypt$N$r$p$saltHex$keyHex layout.
var ErrMalformedHash = errors.New("malformed password hash")

// Params are the key-derivation settings embedded in a hash string.
type Params struct {
	N      int
	R      int
	P      int
	Salt   []byte
	Key    []byte
	KeyLen int
}

// Hash derives a scrypt key from plaintext with a fresh random salt and
// returns the self-describing string scrypt$N$r$p$saltHex$keyHex.
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return strings.Join([]string{
		Algorithm,
		strconv.Itoa(scryptN),
		strconv.Itoa(scryptR),
		strconv.Itoa(scryptP),
		hex.EncodeToString(salt),
		hex.EncodeToString(key),
	}, delimiter), nil
}

// Verify reports whether plaintext matches the stored hash. It never fails:
// any malformed or unsupported hash simply yields false.
func Verify(plaintext, hashed string) bool {
	params, err := Parse(hashed)
	if err != nil {
		return false
	}

	derived, err := scrypt.Key([]byte(plaintext), params.Salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return false
	}
	if len(derived) != len(params.Key) {
		return false
	}

	return subtle.ConstantTimeCompare(derived, params.Key) == 1
}

// Parse splits a hash string into its parameters without deriving anything.
func Parse(hashed string) (*Params, error) {
	parts := strings.Split(hashed, delimiter)
	if len(parts) != fieldCount {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedHash, fieldCount, len(parts))
	}
	if parts[0] != Algorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[0])
	}

	n, err := parseBounded(parts[1], maxN)
	if err != nil {
		return nil, fmt.Errorf("%w: N: %v", ErrMalformedHash, err)
	}
	r, err := parseBounded(parts[2], maxR)
	if err != nil {
		return nil, fmt.Errorf("%w: r: %v", ErrMalformedHash, err)
	}
	if 128*n*r > maxMemory {
		return nil, fmt.Errorf("%w: N=%d r=%d needs more than %d bytes", ErrMalformedHash, n, r, maxMemory)
	}
	p, err := parseBounded(parts[3], maxP)
	if err != nil {
		return nil, fmt.Errorf("%w: p: %v", ErrMalformedHash, err)
	}

	salt, err := hex.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("%w: invalid salt", ErrMalformedHash)
	}
	key, err := hex.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLen {
		return nil, fmt.Errorf("%w: invalid key", ErrMalformedHash)
	}

	return &Params{N: n, R: r, P: p, Salt: salt, Key: key, KeyLen: len(key)}, nil
}

// IsWellFormed reports whether hashed parses as a supported hash string.
func IsWellFormed(hashed string) bool {
	_, err := Parse(hashed)
	return err == nil
}

func parseBounded(s string, limit int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v > limit {
		return 0, fmt.Errorf("%d out of range", v)
	}
	return v, nil
}
