package agentkey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// HashKind tags the stored shape of an agent key hash.
type HashKind int

const (
	// Plain is a legacy record holding the token itself.
	Plain HashKind = iota
	// Prefixed is "sha256:<hex>" or "sha256$<hex>".
	Prefixed
	// BareHex is exactly 64 hex characters with no prefix.
	BareHex
)

func (k HashKind) String() string {
	switch k {
	case Prefixed:
		return "prefixed"
	case BareHex:
		return "bare_hex"
	default:
		return "plain"
	}
}

// StoredHash is a parsed key_hash column value.
type StoredHash struct {
	Kind   HashKind
	Prefix string // "sha256:" or "sha256$" for Prefixed
	Value  string // token for Plain, hex digest otherwise
	Raw    string
}

var hashPrefixes = []string{"sha256:", "sha256$"}

// ParseHash classifies a stored key_hash. It never fails: anything that is
// neither prefixed nor 64 hex characters is treated as a plaintext token.
func ParseHash(raw string) StoredHash {
	for _, p := range hashPrefixes {
		if strings.HasPrefix(raw, p) {
			return StoredHash{Kind: Prefixed, Prefix: p, Value: raw[len(p):], Raw: raw}
		}
	}
	if isHex64(raw) {
		return StoredHash{Kind: BareHex, Value: raw, Raw: raw}
	}
	return StoredHash{Kind: Plain, Value: raw, Raw: raw}
}

func isHex64(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Digest returns the lowercase hex SHA-256 of token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashForStorage returns the canonical stored form "sha256:<hex>".
func HashForStorage(token string) string { return "sha256:" + Digest(token) }

// Generate returns a new random token (32 bytes, URL-safe base64 without
// padding) and its stored hash.
func Generate() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, HashForStorage(token), nil
}

// Preview returns the first characters of a stored hash for display.
func Preview(raw string) string {
	const n = 15
	if len(raw) <= n {
		return raw
	}
	return raw[:n] + "..."
}
