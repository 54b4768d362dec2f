package orientation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrection(t *testing.T) {
	assert.Equal(t, 90, Correction(Rotation0))
	assert.Equal(t, 0, Correction(Rotation90))
	assert.Equal(t, 270, Correction(Rotation180))
	assert.Equal(t, 180, Correction(Rotation270))
	assert.Equal(t, 90, Correction(Rotation(360)), "full turn wraps to 0")
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		display Rotation
		sensor  int
		want    int
	}{
		{"portrait back sensor", Rotation0, 90, 90},
		{"portrait front sensor", Rotation0, 270, 270},
		{"landscape back sensor", Rotation90, 90, 0},
		{"upside down", Rotation180, 90, 270},
		{"reverse landscape", Rotation270, 90, 180},
		{"unrotated sensor", Rotation0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(tt.display, tt.sensor)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.Less(t, got, 360)
		})
	}
}

func TestFromDegrees(t *testing.T) {
	r, err := FromDegrees(-90)
	require.NoError(t, err)
	assert.Equal(t, Rotation270, r)

	r, err = FromDegrees(450)
	require.NoError(t, err)
	assert.Equal(t, Rotation90, r)

	_, err = FromDegrees(45)
	assert.True(t, errors.Is(err, ErrInvalidRotation))
}

func TestFacing(t *testing.T) {
	assert.True(t, Mirrored(FacingFront))
	assert.False(t, Mirrored(FacingBack))
	assert.False(t, Mirrored(FacingExternal))

	assert.Equal(t, FacingBack, FacingFront.Opposite())
	assert.Equal(t, FacingFront, FacingBack.Opposite())

	for _, f := range []Facing{FacingFront, FacingBack, FacingExternal} {
		parsed, err := ParseFacing(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
	_, err := ParseFacing("sideways")
	assert.Error(t, err)
}
