package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ncube/internal/render"
)

type sink struct{ ids []uint64 }

func (s *sink) Write(f render.Frame) error {
	s.ids = append(s.ids, f.FrameID)
	return nil
}

func TestDropsFastFrames(t *testing.T) {
	clock := time.Unix(0, 0)
	s := &sink{}
	d := New(s, 50*time.Millisecond)
	d.now = func() time.Time { return clock }

	for i := 1; i <= 5; i++ {
		require.NoError(t, d.Write(render.Frame{FrameID: uint64(i), Dimension: 4}))
		clock = clock.Add(10 * time.Millisecond)
	}
	require.NoError(t, d.Write(render.Frame{FrameID: 6, Dimension: 5}))
	assert.Equal(t, []uint64{1, 6}, s.ids)

	clock = clock.Add(60 * time.Millisecond)
	require.NoError(t, d.Write(render.Frame{FrameID: 7, Dimension: 5}))
	assert.Equal(t, []uint64{1, 6, 7}, s.ids)
}
