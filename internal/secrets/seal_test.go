package secrets

import (
	"testing"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	fileKey, err := NewFileKey()
	require.NoError(t, err)

	sealed, err := Seal(pub, fileKey)
	require.NoError(t, err)
	assert.Len(t, sealed, len(fileKey)+SealOverhead)

	got, err := Unseal(priv, sealed)
	require.NoError(t, err)
	assert.Equal(t, fileKey, got)
}

func TestSealIsRandomized(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	a, err := Seal(pub, []byte("secret"))
	require.NoError(t, err)
	b, err := Seal(pub, []byte("secret"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:KeySize], b[:KeySize], "ephemeral public keys must differ")
}

func TestUnsealWithWrongKeyFails(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	otherPriv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	sealed, err := Seal(pub, []byte("secret"))
	require.NoError(t, err)

	_, err = Unseal(otherPriv, sealed)
	assert.ErrorIs(t, err, kerrors.ErrUnsealFailed)
	assert.ErrorIs(t, err, kerrors.ErrAuthentication)
}

func TestUnsealTamperedFails(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	sealed, err := Seal(pub, []byte("secret"))
	require.NoError(t, err)

	for _, i := range []int{0, KeySize, len(sealed) - 1} {
		tampered := append([]byte(nil), sealed...)
		tampered[i] ^= 0x01
		_, err := Unseal(priv, tampered)
		assert.ErrorIsf(t, err, kerrors.ErrUnsealFailed, "flip at byte %d", i)
	}

	_, err = Unseal(priv, sealed[:SealOverhead-1])
	assert.ErrorIs(t, err, kerrors.ErrUnsealFailed)
}

func TestPrivateKeyPublicMatchesGenerated(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	derived := priv.Public()
	assert.True(t, derived.Equal(pub))
}

func TestPrivateKeyWipe(t *testing.T) {
	priv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	priv.Wipe()
	assert.Equal(t, PrivateKey{}, *priv)
}

func TestParsePublicKey(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	parsed, err := ParsePublicKey(pub.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(pub))

	padded := pub.String() + "="
	parsed, err = ParsePublicKey(padded)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(pub))

	_, err = ParsePublicKey("AAAA")
	assert.ErrorIs(t, err, kerrors.ErrInvalidKeyLength)
}
