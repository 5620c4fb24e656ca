package badger

import (
	"encoding/binary"

	"github.com/poiesic/carefind/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "hosdoc:"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix + 8-byte big-endian ID, so keys iterate in ID order.
func makeDocumentKey(id core.ID) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// documentIDFromKey extracts the ID from a document key.
func documentIDFromKey(key []byte) (core.ID, bool) {
	if len(key) != len(documentPrefix)+8 || string(key[:len(documentPrefix)]) != documentPrefix {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(documentPrefix):])), true
}
