package hash

import (
	"crypto/sha256"
)

const (
	SHA256_HASH_SIZE_BYTES = 32
)

func CalcSha256(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}
