package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureAxis(t *testing.T) {
	axis := FutureAxis(month("2025-12"), month("2026-02"))
	require.Len(t, axis, 2)
	assert.Equal(t, "2026-01", axis[0].String())
	assert.Equal(t, "2026-02", axis[1].String())
}

func TestFutureAxisEmptyWhenHorizonNotAhead(t *testing.T) {
	assert.Empty(t, FutureAxis(month("2025-12"), month("2025-12")))
	assert.Empty(t, FutureAxis(month("2025-12"), month("2025-06")))
}

func TestFutureAxisCrossesYearWithoutGaps(t *testing.T) {
	axis := FutureAxis(month("2025-10"), month("2026-03"))
	require.Len(t, axis, 5)
	for i := 1; i < len(axis); i++ {
		assert.Equal(t, axis[i-1].Next(), axis[i])
	}
}
