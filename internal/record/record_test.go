package record

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ncube/internal/rotation"
)

func sample() Record {
	return Record{
		Dimension: 4,
		Rotations: []PlaneRotation{
			{AxisA: 0, AxisB: 3, Angle: 1.2345678901234567, AngularVelocity: 0.5},
			{AxisA: 1, AxisB: 2, Angle: 0.1, AngularVelocity: 1},
		},
		EdgeThickness:   0.01,
		EdgeColor:       Cyan,
		FaceColor:       TranslucentCyan,
		CameraTransform: Transform{Translation: [3]float64{0, 0, 3}, Rotation: [4]float64{0, 0.2, 0, 0.98}, Scale: [3]float64{1, 1, 1}},
		Unlit:           true,
	}
}

func TestEncodeDecodeLossless(t *testing.T) {
	in := sample()
	b, err := Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"rotations"`)

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeNormalizesLegacyAngles(t *testing.T) {
	raw := `{"dimension": 4, "rotations": [[3, 0, 20.0, 0.5], [1, 2, -1.0, 1.0]]}`
	r, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Len(t, r.Rotations, 2)
	assert.Equal(t, 0, r.Rotations[0].AxisA)
	assert.Equal(t, 3, r.Rotations[0].AxisB)
	assert.InDelta(t, math.Mod(20, 2*math.Pi), r.Rotations[0].Angle, 1e-12)
	assert.InDelta(t, 2*math.Pi-1, r.Rotations[1].Angle, 1e-12)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"dimension": 4,`,
		"missing rotations":  `{"dimension": 4}`,
		"string dimension":   `{"dimension": "four", "rotations": []}`,
		"short tuple":        `{"dimension": 4, "rotations": [[0, 1, 0.5]]}`,
		"fractional axis":    `{"dimension": 4, "rotations": [[0.5, 1, 0, 0]]}`,
		"negative axis":      `{"dimension": 4, "rotations": [[-1, 1, 0, 0]]}`,
		"dimension too big":  `{"dimension": 12, "rotations": []}`,
		"dimension too low":  `{"dimension": 2, "rotations": []}`,
		"axis outside":       `{"dimension": 3, "rotations": [[0, 3, 0, 0]]}`,
		"degenerate plane":   `{"dimension": 3, "rotations": [[1, 1, 0, 0]]}`,
		"duplicate plane":    `{"dimension": 3, "rotations": [[0, 1, 0, 0], [1, 0, 0, 1]]}`,
		"negative thickness": `{"dimension": 3, "rotations": [], "edgeThickness": -1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestStateFillsMissingPlanes(t *testing.T) {
	r := Record{Dimension: 4, Rotations: []PlaneRotation{{AxisA: 0, AxisB: 3, Angle: 1, AngularVelocity: 0.5}}}
	s, err := r.State()
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, 0.5, s.Velocity(rotation.NewPlane(0, 3)))
	assert.Zero(t, s.Velocity(rotation.NewPlane(1, 2)))
}

func TestFromStateIsCanonical(t *testing.T) {
	s := rotation.Default(4)
	got := FromState(s)
	require.Len(t, got, 6)
	assert.Equal(t, PlaneRotation{AxisA: 0, AxisB: 1}, got[0])
	assert.Equal(t, PlaneRotation{AxisA: 0, AxisB: 3, AngularVelocity: 0.5}, got[2])
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scene.json", "nested/scene.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, sample()))
			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
