package qr_test

import (
	"bytes"
	"testing"

	"loyalty-backend/internal/card/qr"
	"loyalty-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestGenerateEncryptedQRProducesPNG(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret")
	card := models.BonusCard{ID: 42, Phone: "+420111222333"}

	png, err := gen.GenerateEncryptedQR(card)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestGenerateEncryptedQRAnySecretLength(t *testing.T) {
	// secrets are hashed to a fixed key size, so any passphrase works
	for _, secret := range []string{"x", "a-much-longer-operator-chosen-passphrase"} {
		gen := qr.NewQRGenerator(secret)
		_, err := gen.GenerateEncryptedQR(models.BonusCard{ID: 1, Phone: "+420000000000"})
		require.NoError(t, err)
	}
}
