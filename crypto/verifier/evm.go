// Package verifier validates the cryptographic material an interaction
// carries before its handler runs: the EVM-style signature over an
// interaction's canonical bytes, and (pluggably) a VRF proof.
package verifier

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/crypto/hash"
)

const (
	ecdsaSecp256k1SignatureSizeBytes = 65 // with recovery byte
	ecdsaSecp256k1PublicKeySizeBytes = 64 // uncompressed, without the 0x04 prefix
	evmAddressSizeBytes              = 20
)

// RecoverEvmAddress recovers the 20-byte EVM address that signed data,
// given a 65-byte recoverable secp256k1 signature over data. data must
// already be a hash; callers must not pass adversary-controlled bytes
// directly.
func RecoverEvmAddress(data []byte, signature []byte) ([]byte, error) {
	if len(signature) != ecdsaSecp256k1SignatureSizeBytes {
		return nil, errors.Errorf("invalid signature size %d, want %d", len(signature), ecdsaSecp256k1SignatureSizeBytes)
	}
	publicKeyWithPrefix, err := crypto.Ecrecover(data, signature)
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover public key")
	}
	if len(publicKeyWithPrefix) != ecdsaSecp256k1PublicKeySizeBytes+1 {
		return nil, errors.Errorf("secp256k1.RecoverPubkey returned public key with len %d", len(publicKeyWithPrefix))
	}
	publicKey := publicKeyWithPrefix[1:]
	digest := hash.CalcKeccak256(publicKey)
	return digest[len(digest)-evmAddressSizeBytes:], nil
}

// VerifyEvmOwner reports whether signature over data was produced by the
// holder of ownerAddress (a lowercase-hex 0x-prefixed EVM address, per
// spec.md's owner_address field).
func VerifyEvmOwner(ownerAddress string, data []byte, signature []byte) (bool, error) {
	recovered, err := RecoverEvmAddress(data, signature)
	if err != nil {
		return false, err
	}
	want, err := decodeHexAddress(ownerAddress)
	if err != nil {
		return false, err
	}
	if len(recovered) != len(want) {
		return false, nil
	}
	for i := range recovered {
		if recovered[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}

func decodeHexAddress(address string) ([]byte, error) {
	trimmed := address
	if len(trimmed) >= 2 && trimmed[0] == '0' && (trimmed[1] == 'x' || trimmed[1] == 'X') {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != evmAddressSizeBytes*2 {
		return nil, errors.Errorf("invalid EVM address %q", address)
	}
	out := make([]byte, evmAddressSizeBytes)
	for i := 0; i < evmAddressSizeBytes; i++ {
		hi, err := hexNibble(trimmed[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(trimmed[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, errors.Errorf("invalid hex digit %q", c)
	}
}
