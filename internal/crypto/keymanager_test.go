package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("super-secret-api-key", "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-api-key", got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptSecret("super-secret-api-key", "hunter2")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "hunter3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestEncryptRejectsEmptyInputs(t *testing.T) {
	_, err := EncryptSecret("", "hunter2")
	assert.Error(t, err)

	_, err = EncryptSecret("secret", "")
	assert.Error(t, err)
}

func TestEncryptUsesFreshSaltAndNonce(t *testing.T) {
	a, err := EncryptSecret("secret", "pw")
	require.NoError(t, err)
	b, err := EncryptSecret("secret", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptUnsupportedVersion(t *testing.T) {
	_, err := DecryptSecret([]byte(`{"version":99,"salt":"","nonce":"","ciphertext":""}`), "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestLoadSecretResolutionOrder(t *testing.T) {
	// Raw secret wins even when a file path is also configured.
	got, err := LoadSecret(SecretConfig{RawSecret: "raw", EncryptedSecretPath: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, "raw", got)

	// Encrypted file is used when no raw secret is present.
	blob, err := EncryptSecret("from-file", "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err = LoadSecret(SecretConfig{EncryptedSecretPath: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	// Nothing configured means public-endpoint-only operation.
	got, err = LoadSecret(SecretConfig{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHMACSignKnownVector(t *testing.T) {
	// Example from the Binance signed-endpoint documentation.
	auth := &HMACAuth{
		Key:    "vmPUZE6mv9SD5VNHk4HlWFsOr6aKE2zvsw0MuIgwCIPy6utIco14y7Ju91duEh8A",
		Secret: "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j",
	}
	payload := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	assert.Equal(t,
		"c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71",
		auth.Sign(payload),
	)
}

func TestSignedQueryAtAppendsTimestampAndSignature(t *testing.T) {
	auth := &HMACAuth{Secret: "s"}
	q := auth.SignedQueryAt("symbol=BTCUSDT", 1700000000000)

	assert.Contains(t, q, "symbol=BTCUSDT&timestamp=1700000000000&signature=")
	assert.Equal(t, q, auth.SignedQueryAt("symbol=BTCUSDT", 1700000000000))
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "abcdef123456", Secret: "zyxwvu987654"}
	s := auth.String()
	assert.NotContains(t, s, "abcdef123456")
	assert.NotContains(t, s, "zyxwvu987654")
	assert.Contains(t, s, "abcd****")
}
