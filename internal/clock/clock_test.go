package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/railzwaylabs/subscribe/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestSystemClock_Now(t *testing.T) {
	c := clock.SystemClock{}

	before := time.Now().UTC()
	now := c.Now(context.Background())
	assert.False(t, now.Before(before))
	assert.Equal(t, time.UTC, now.Location())

	pinned := time.Date(2024, time.February, 29, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, pinned, c.Now(clock.WithNow(context.Background(), pinned)))
}
