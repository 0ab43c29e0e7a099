package store

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// SessionHasher turns anonymous session ids into keyed digests so a database
// dump cannot be replayed as cart capabilities.
type SessionHasher struct {
	key []byte
}

func NewSessionHasher(key string) *SessionHasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum256(k)
		k = sum[:]
	}
	return &SessionHasher{key: k}
}

func (h *SessionHasher) Hash(sessionID string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// only possible with a key over 64 bytes, which NewSessionHasher prevents
		panic(err)
	}
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}
