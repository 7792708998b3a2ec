package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
dimension: 6
size: 2
fps: 30
log_level: debug
rotations:
  - plane: [3, 0]
    velocity: 0.25
  - plane: [4, 5]
    velocity: -1
appearance:
  edge_thickness: 0.02
  edge_color: {r: 1, g: 0, b: 0, a: 1}
scenes_db: scenes.db
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Dimension)
	assert.Equal(t, 2.0, c.Size)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "scenes.db", c.ScenesDB)
	require.Len(t, c.Rotations, 2)
	require.NotNil(t, c.Appearance.EdgeColor)
	assert.Equal(t, record.Color{R: 1, A: 1}, *c.Appearance.EdgeColor)
	assert.Nil(t, c.Appearance.FaceColor)

	s := c.RotationState(5)
	assert.Equal(t, 0.25, s.Velocity(rotation.NewPlane(0, 3)))
	assert.Zero(t, s.Velocity(rotation.NewPlane(1, 2)))
	_, ok := s.Get(rotation.NewPlane(4, 5))
	assert.False(t, ok)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"dimension": "dimension: 2\n",
		"fps":       "fps: 1000\n",
		"level":     "log_level: loud\n",
		"plane":     "rotations:\n  - plane: [1, 1]\n    velocity: 1\n",
		"thickness": "appearance:\n  edge_thickness: -0.1\n",
		"yaml":      "dimension: [\n",
	} {
		_, err := Load(write(t, body))
		assert.Error(t, err, name)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	in := &Config{
		Dimension: 4,
		Size:      1,
		FPS:       60,
		Addr:      ":9090",
		Rotations: []PlaneVelocity{{Plane: [2]int{1, 2}, Velocity: 1}},
		Program:   "show.yaml",
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, in))
	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRotationStateDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, rotation.Default(4).Entries(), c.RotationState(4).Entries())
}
