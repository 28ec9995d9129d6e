package framecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the byte length of a content hash.
const HashSize = sha256.Size

// Hash identifies rendered pixel content. It is a fixed-size value type
// and usable as a map key.
type Hash [HashSize]byte

// HashOf returns the content hash of data.
func HashOf(data []byte) Hash { return sha256.Sum256(data) }

// Hex returns the full lowercase hex encoding of h.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return h.Hex() }

// ParseHex decodes a full-length hex string into a Hash.
func ParseHex(s string) (Hash, error) {
	var h Hash
	if len(s) != HashSize*2 {
		return h, fmt.Errorf("framecache: hash hex must be %d chars, got %d", HashSize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("framecache: bad hash hex: %w", err)
	}
	copy(h[:], b)
	return h, nil
}
