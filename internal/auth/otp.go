package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
)

// HashConfig holds the parameters for the Argon2id one-time password digest
type HashConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashConfig returns the production digest parameters
func DefaultHashConfig() *HashConfig {
	return &HashConfig{
		Memory:      constants.DefaultOTPHashMemory,
		Iterations:  constants.DefaultOTPHashIterations,
		Parallelism: constants.DefaultOTPHashParallelism,
		SaltLength:  constants.DefaultOTPHashSaltLength,
		KeyLength:   constants.DefaultOTPHashKeyLength,
	}
}

// HashConfigFromSettings creates a digest config from the application config
func HashConfigFromSettings(cfg *config.HashSettings) *HashConfig {
	return &HashConfig{
		Memory:      cfg.Memory,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	}
}

// GenerateOTP returns a uniformly random code of OTPLength decimal digits,
// zero padded. Codes are not unique across requests.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(constants.OTPModulus))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", constants.OTPLength, n.Int64()), nil
}

// HashOTP digests a one-time password with Argon2id.
// Returns the encoded hash and the salt used for hashing
func HashOTP(otp string, cfg *HashConfig) (string, string, error) {
	salt, err := GenerateRandomBytes(cfg.SaltLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(otp), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	return base64.StdEncoding.EncodeToString(hash), base64.StdEncoding.EncodeToString(salt), nil
}

// VerifyOTP compares a submitted code with a stored hash and salt.
// The key length is taken from the stored hash so a changed KeyLength does
// not break codes issued before the change.
func VerifyOTP(otp, encodedHash, encodedSalt string, cfg *HashConfig) (bool, error) {
	hash, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	if len(hash) == 0 {
		return false, fmt.Errorf("stored hash is empty")
	}

	comparisonHash := argon2.IDKey([]byte(otp), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, uint32(len(hash)))

	// Constant time, so a near miss costs the same as a wild guess
	return subtle.ConstantTimeCompare(hash, comparisonHash) == 1, nil
}

// OTPHasher binds HashOTP and VerifyOTP to one configuration
type OTPHasher struct {
	cfg *HashConfig
}

// NewOTPHasher creates an OTPHasher
func NewOTPHasher(cfg *HashConfig) *OTPHasher {
	return &OTPHasher{cfg: cfg}
}

// Hash digests otp
func (h *OTPHasher) Hash(otp string) (string, string, error) {
	return HashOTP(otp, h.cfg)
}

// Verify checks otp against a stored digest
func (h *OTPHasher) Verify(otp, encodedHash, encodedSalt string) (bool, error) {
	return VerifyOTP(otp, encodedHash, encodedSalt, h.cfg)
}

// GenerateRandomBytes generates cryptographically secure random bytes
func GenerateRandomBytes(length uint32) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
