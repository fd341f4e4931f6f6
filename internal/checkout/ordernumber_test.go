package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumberFormat(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		number, err := newOrderNumber()
		require.NoError(t, err)
		require.Len(t, number, 10)
		assert.NotEqual(t, byte('0'), number[0])
		for _, ch := range number {
			assert.True(t, ch >= '0' && ch <= '9', "unexpected character %q in %s", ch, number)
		}
	}
}
