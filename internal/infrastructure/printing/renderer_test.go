package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderError(t *testing.T) {
	t.Run("error without cause", func(t *testing.T) {
		err := NewRenderError(ErrCodeRenderTimeout, "timeout occurred", nil)

		assert.Equal(t, ErrCodeRenderTimeout, err.Code)
		assert.Equal(t, "timeout occurred", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("error with cause", func(t *testing.T) {
		err := NewRenderError(ErrCodeRenderFailed, "render failed", assert.AnError)

		assert.Equal(t, ErrCodeRenderFailed, err.Code)
		assert.Equal(t, "render failed: "+assert.AnError.Error(), err.Error())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestDefaultMargins(t *testing.T) {
	m := DefaultMargins()
	assert.Equal(t, Margins{Top: 15, Right: 12, Bottom: 15, Left: 12}, m)
}
