package verifier

import "github.com/warp-contracts/weave-engine/model"

// VrfVerifier is consulted when an interaction carries a VRF proof
// (spec.md: "if i.vrf present and a VRF verifier is attached, verify or
// fail"). No VRF scheme ships in this module; callers wire a concrete
// implementation (e.g. an ed25519-based VRF) when one is needed, and an
// absent verifier silently passes interactions without a proof through.
type VrfVerifier interface {
	Verify(i model.Interaction) (bool, error)
}

// OwnerVerifier checks an interaction's signature, if any, against its
// owner_address. EvmOwnerVerifier is the concrete implementation backed
// by go-ethereum's secp256k1 recovery.
type OwnerVerifier interface {
	Verify(ownerAddress string, signedBytes []byte, signature []byte) (bool, error)
}

type evmOwnerVerifier struct{}

// EvmOwnerVerifier returns an OwnerVerifier that recovers an EVM address
// from a 65-byte recoverable secp256k1 signature.
func EvmOwnerVerifier() OwnerVerifier { return evmOwnerVerifier{} }

func (evmOwnerVerifier) Verify(ownerAddress string, signedBytes []byte, signature []byte) (bool, error) {
	return VerifyEvmOwner(ownerAddress, signedBytes, signature)
}
