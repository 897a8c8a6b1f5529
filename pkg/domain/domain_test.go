package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectMeta(t *testing.T) {
	t.Parallel()

	t.Run("get with fallback", func(t *testing.T) {
		t.Parallel()
		meta := ObjectMeta{"avatax.code": "P0000000"}
		assert.Equal(t, "P0000000", meta.Get("avatax.code", "O9999999"))
		assert.Equal(t, "O9999999", meta.Get("missing", "O9999999"))
	})

	t.Run("get on nil map returns the fallback", func(t *testing.T) {
		t.Parallel()
		var meta ObjectMeta
		assert.Equal(t, "fallback", meta.Get("any", "fallback"))
	})

	t.Run("set allocates on demand", func(t *testing.T) {
		t.Parallel()
		var meta ObjectMeta
		meta.Set("avatax.code", "P0000000")
		assert.Equal(t, "P0000000", meta.Get("avatax.code", ""))
	})
}

func TestTaxError(t *testing.T) {
	t.Parallel()

	err := NewTaxError("wrong credentials")

	var taxErr *TaxError
	require.ErrorAs(t, err, &taxErr)
	assert.Equal(t, "wrong credentials", taxErr.Reason)
	assert.Equal(t, "tax error: wrong credentials", err.Error())
}

func TestSentinelErrorsWrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("%w: shopforge.taxes.avatax", ErrPluginNotFound)
	assert.True(t, errors.Is(wrapped, ErrPluginNotFound))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}
