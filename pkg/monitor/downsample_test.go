package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trailOf(n int) []Position {
	trail := make([]Position, n)
	for i := 0; i < n; i++ {
		trail[i] = Position{
			Timestamp: testBase.Add(time.Duration(i) * 10 * time.Millisecond),
			Value:     uint16(i),
		}
	}
	return trail
}

func TestDownsampleTrail_NoDownsampling(t *testing.T) {
	trail := trailOf(3)

	// Test with nil dst
	result := DownsampleTrail(nil, trail, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, trail, result)

	// Test with sufficient capacity dst
	dst := make([]Position, 0, 10)
	result = DownsampleTrail(dst, trail, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, trail, result)
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsampleTrail_WithDownsampling(t *testing.T) {
	trail := trailOf(100)

	dst := make([]Position, 0, 20)
	result := DownsampleTrail(dst, trail, 10)
	require.Equal(t, 10, len(result))

	// Always includes the first point
	assert.Equal(t, trail[0], result[0])

	// The last kept point lands near the end of the range
	assert.GreaterOrEqual(t, result[len(result)-1].Value, uint16(80))
}

func TestDownsampleTrail_DestinationReuse(t *testing.T) {
	trail1 := trailOf(2)
	trail2 := trailOf(3)

	dst := make([]Position, 0, 10)
	result1 := DownsampleTrail(dst, trail1, 10)
	require.Equal(t, 2, len(result1))

	// Second call reuses the same underlying array
	result2 := DownsampleTrail(result1, trail2, 10)
	require.Equal(t, 3, len(result2))
	assert.Equal(t, cap(result1), cap(result2))
}

func TestDownsampleTrail_EmptyInput(t *testing.T) {
	result := DownsampleTrail(nil, []Position{}, 10)
	require.Equal(t, 0, len(result))
}

func TestDownsampleTrail_ExactMaxPoints(t *testing.T) {
	trail := trailOf(10)

	result := DownsampleTrail(nil, trail, 10)
	require.Equal(t, 10, len(result))
	assert.Equal(t, trail, result)
}
