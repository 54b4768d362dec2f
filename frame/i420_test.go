package frame

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitI420(t *testing.T) {
	img, _ := semiPlanarImage(6, 5)
	buf, err := Pack(img)
	require.NoError(t, err)

	f, err := SplitI420(buf, 6, 5)
	require.NoError(t, err)

	cw, ch := f.ChromaSize()
	assert.Equal(t, 3, cw)
	assert.Equal(t, 3, ch)
	assert.Len(t, f.Y, 30)
	assert.Len(t, f.U, 9)
	assert.Len(t, f.V, 9)
	assert.Equal(t, 6, f.YStride)
	assert.Equal(t, 3, f.CStride)

	// Views alias the packed buffer.
	f.Y[0] = 0xAB
	assert.Equal(t, byte(0xAB), buf[0])

	assert.Equal(t, buf, f.Bytes())
}

func TestSplitI420_RejectsWrongLength(t *testing.T) {
	_, err := SplitI420(make([]byte, 10), 4, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedImage))

	_, err = SplitI420(nil, 0, 4)
	assert.True(t, errors.Is(err, ErrMalformedImage))
}

func TestI420_CloneIsIndependent(t *testing.T) {
	f := NewI420(4, 4)
	f.U[0] = 7

	c := f.Clone()
	c.U[0] = 9

	assert.Equal(t, byte(7), f.U[0])
	assert.Equal(t, byte(9), c.U[0])
	assert.Equal(t, f.Width, c.Width)
}

func TestI420_YCbCr(t *testing.T) {
	buf, err := Pack(packedImage(4, 2))
	require.NoError(t, err)
	f, err := SplitI420(buf, 4, 2)
	require.NoError(t, err)

	ycc := f.YCbCr()
	assert.Equal(t, image.Rect(0, 0, 4, 2), ycc.Bounds())
	assert.Equal(t, image.YCbCrSubsampleRatio420, ycc.SubsampleRatio)

	c := ycc.YCbCrAt(3, 1)
	assert.Equal(t, buf[7], c.Y)
	assert.Equal(t, f.U[1], c.Cb)
	assert.Equal(t, f.V[1], c.Cr)
}

func TestDigest(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{1, 2, 4}

	assert.Equal(t, Digest(a), Digest([]byte{1, 2, 3}))
	assert.NotEqual(t, Digest(a), Digest(b))
	assert.Len(t, Digest(nil), DigestSize)
}
