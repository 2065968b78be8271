package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "<kind>:<sha256 of the JSON-encoded parts>". Oracle name,
// digests and search params all end up in parts, so changing any of them
// yields a different hit table key.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data. FileCache uses it to spread entries
// over two-character shard directories.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFields fingerprints an ordered list of (id, residues) style fields.
// Every field is length-prefixed, so ("AB", "C") and ("A", "BC") differ.
func DigestFields(fields ...string) string {
	h := sha256.New()
	var n [binary.MaxVarintLen64]byte
	for _, f := range fields {
		h.Write(n[:binary.PutUvarint(n[:], uint64(len(f)))])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}
