package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
)

// Hash hashes a password using Argon2id and returns an encoded hash string.
// Format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	b64 := base64.RawStdEncoding

	enc := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)

	return enc, nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
//
// A mismatch is never an error: callers branch on the bool only.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Anti-DoS boundary: refuse to verify if the embedded params exceed our
	// configured maximums by a large margin. Attacker-controlled hash strings
	// must not be able to dictate pathological resource usage.
	if !withinReasonableBounds(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)),
	)

	if subtle.ConstantTimeCompare(key, expected) == 1 {
		return true, nil
	}
	return false, nil
}

// decode parses a PHC Argon2id hash string strictly.
func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	// Leading "$" yields an empty first element.
	if len(parts) != 6 || parts[0] != "" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2Version {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var p Argon2idParams
	if err := parseCost(parts[3], &p); err != nil {
		return Argon2idParams{}, nil, nil, err
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}

func parseCost(s string, p *Argon2idParams) error {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return ErrInvalidHash
	}
	for _, f := range fields {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			return ErrInvalidHash
		}
		u, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil || u == 0 {
			return ErrInvalidHash
		}
		switch kv[0] {
		case "m":
			p.MemoryKiB = uint32(u)
		case "t":
			p.Iterations = uint32(u)
		case "p":
			if u > 255 {
				return ErrInvalidHash
			}
			p.Parallelism = uint8(u)
		default:
			return ErrInvalidHash
		}
	}
	if p.MemoryKiB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return ErrInvalidHash
	}
	return nil
}

// withinReasonableBounds allows verifying hashes created under older, cheaper
// settings, but caps each parameter at 4x the configured maximum.
func withinReasonableBounds(got, cfg Argon2idParams) bool {
	if got.MemoryKiB > cfg.MemoryKiB*4 {
		return false
	}
	if got.Iterations > cfg.Iterations*4 {
		return false
	}
	if uint32(got.Parallelism) > uint32(cfg.Parallelism)*4 {
		return false
	}
	return true
}
