package optional_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
)

func TestValueUnmarshalJSON(t *testing.T) {
	type patch struct {
		Name        optional.Value[string] `json:"name"`
		Description optional.Value[string] `json:"description"`
		Stock       optional.Value[int]    `json:"stock"`
	}

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Desk","description":null}`), &p))

	t.Run("Should mark present values", func(t *testing.T) {
		v, ok := p.Name.Get()
		assert.True(t, ok)
		assert.Equal(t, "Desk", v)
		assert.False(t, p.Name.IsNull())
	})

	t.Run("Should mark explicit null", func(t *testing.T) {
		assert.True(t, p.Description.IsSet())
		assert.True(t, p.Description.IsNull())
		assert.Nil(t, p.Description.Ptr())
	})

	t.Run("Should leave absent values unset", func(t *testing.T) {
		assert.False(t, p.Stock.IsSet())
		_, ok := p.Stock.Get()
		assert.False(t, ok)
	})

	t.Run("Should fail on wrong type", func(t *testing.T) {
		var bad patch
		assert.Error(t, json.Unmarshal([]byte(`{"stock":"ten"}`), &bad))
	})
}

func TestValueMarshalJSON(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"a": optional.Of(3),
		"b": optional.Null[int](),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(b))
}
