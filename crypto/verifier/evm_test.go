package verifier

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/crypto/hash"
)

func TestRecoverEvmAddressRoundTripsWithSign(t *testing.T) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	publicKeyBytes := crypto.FromECDSAPub(&privateKey.PublicKey)
	digest := hash.CalcKeccak256(publicKeyBytes[1:])
	wantAddress := digest[len(digest)-evmAddressSizeBytes:]

	data := hash.CalcKeccak256([]byte("interaction bytes"))
	signature, err := crypto.Sign(data, privateKey)
	require.NoError(t, err)

	recovered, err := RecoverEvmAddress(data, signature)
	require.NoError(t, err)
	require.Equal(t, wantAddress, recovered)
}

func TestRecoverEvmAddressRejectsWrongSignatureSize(t *testing.T) {
	_, err := RecoverEvmAddress([]byte("data"), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeHexAddressRejectsBadLength(t *testing.T) {
	_, err := decodeHexAddress("0x1234")
	require.Error(t, err)
}

func TestDecodeHexAddressAcceptsUpperAndLowerHex(t *testing.T) {
	lower, err := decodeHexAddress("0x000000000000000000000000000000000000000b")
	require.NoError(t, err)
	upper, err := decodeHexAddress("0X000000000000000000000000000000000000000A")
	require.NoError(t, err)
	require.NotEqual(t, lower, upper)
}
