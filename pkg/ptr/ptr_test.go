package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeref(t *testing.T) {
	t.Run("Should return the pointed value", func(t *testing.T) {
		assert.Equal(t, 5, Deref(New(5), 10))
	})

	t.Run("Should return the default for nil", func(t *testing.T) {
		var p *string
		assert.Equal(t, "fallback", Deref(p, "fallback"))
	})
}
