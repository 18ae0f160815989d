package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "refeera/pkg/domain-errors"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	t.Run("matching password verifies", func(t *testing.T) {
		assert.NoError(t, h.Verify("correct horse", hash))
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		err := h.Verify("battery staple", hash)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage hash is an internal error", func(t *testing.T) {
		err := h.Verify("x", "not-a-hash")
		require.Error(t, err)
		assert.False(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := h.Hash("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("over-long password rejected", func(t *testing.T) {
		_, err := h.Hash(strings.Repeat("a", 73))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("configured cost is used", func(t *testing.T) {
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	})
}
