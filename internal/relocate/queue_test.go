package relocate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidybar/tidybar/internal/model"
)

func TestQueue_SameItemCoalesces(t *testing.T) {
	q := NewQueue()
	q.Offer(Request{ID: "a", Target: model.PlacementHidden})
	q.Offer(Request{ID: "a", Target: model.PlacementVisible})
	require.Equal(t, 1, q.Len())

	r, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, model.PlacementVisible, r.Target)

	_, ok = q.Next()
	assert.False(t, ok)
}

func TestQueue_FIFOAcrossItems(t *testing.T) {
	q := NewQueue()
	q.Offer(Request{ID: "a", Target: model.PlacementHidden})
	q.Offer(Request{ID: "b", Target: model.PlacementFloating})
	q.Offer(Request{ID: "a", Target: model.PlacementFloating})

	r1, _ := q.Next()
	r2, _ := q.Next()
	assert.Equal(t, "a", r1.ID)
	assert.Equal(t, model.PlacementFloating, r1.Target)
	assert.Equal(t, "b", r2.ID)
}

func TestQueue_Remap(t *testing.T) {
	q := NewQueue()
	q.Offer(Request{ID: "a", Target: model.PlacementHidden})
	q.Remap("a", "a#2")

	r, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "a#2", r.ID)
	assert.Equal(t, model.PlacementHidden, r.Target)
}
