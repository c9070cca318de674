package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return base.Add(10 * time.Second) }

	r1, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, r1.Allowed)
	assert.EqualValues(t, 1, r1.Remaining)

	r2, _ := l.Allow(ctx, "u1")
	assert.True(t, r2.Allowed)

	r3, _ := l.Allow(ctx, "u1")
	assert.False(t, r3.Allowed)
	assert.EqualValues(t, 3, r3.CurrentHits)
	assert.Equal(t, 50*time.Second, r3.RetryAfter)

	// otra key es independiente
	other, _ := l.Allow(ctx, "u2")
	assert.True(t, other.Allowed)

	// ventana siguiente
	l.now = func() time.Time { return base.Add(70 * time.Second) }
	r4, _ := l.Allow(ctx, "u1")
	assert.True(t, r4.Allowed)
	assert.EqualValues(t, 1, r4.CurrentHits)
}
