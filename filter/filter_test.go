package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/campreview/frame"
)

// createTestFrame builds a frame with a horizontal luma ramp and fixed,
// non-neutral chroma.
func createTestFrame(width, height int) *frame.I420 {
	f := frame.NewI420(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Y[y*f.YStride+x] = byte((x * 255) / max(1, width-1))
		}
	}
	for i := range f.U {
		f.U[i] = 100
		f.V[i] = 160
	}
	return f
}

func uniformFrame(width, height int, y byte) *frame.I420 {
	f := frame.NewI420(width, height)
	for i := range f.Y {
		f.Y[i] = y
	}
	for i := range f.U {
		f.U[i] = 128
		f.V[i] = 128
	}
	return f
}

func TestDefaultBank(t *testing.T) {
	bank := DefaultBank()

	assert.Equal(t, 13, bank.Len())
	first, err := bank.At(0)
	require.NoError(t, err)
	assert.Equal(t, "Identity", first.GetName())

	names := bank.Names()
	assert.Len(t, names, 13)
	assert.Contains(t, names, "Grayscale")
	assert.Contains(t, names, "EdgeDetect")

	_, err = bank.At(13)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = bank.At(-1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestBank_EveryFilterPreservesGeometry(t *testing.T) {
	bank := DefaultBank()
	src := createTestFrame(17, 9)
	before := src.Bytes()

	for i := 0; i < bank.Len(); i++ {
		flt, err := bank.At(i)
		require.NoError(t, err)

		t.Run(flt.GetName(), func(t *testing.T) {
			out, err := bank.Apply(i, src)
			require.NoError(t, err)
			assert.Equal(t, src.Width, out.Width)
			assert.Equal(t, src.Height, out.Height)
			assert.Len(t, out.Bytes(), frame.PackedSize(17, 9))
			assert.Equal(t, before, src.Bytes(), "input must not be modified")

			_, err = flt.Apply(nil)
			assert.True(t, errors.Is(err, ErrNilFrame))
		})
	}
}

func TestIdentity(t *testing.T) {
	src := createTestFrame(8, 4)
	out, err := NewIdentity().Apply(src)
	require.NoError(t, err)
	assert.Equal(t, src.Bytes(), out.Bytes())

	out.Y[0] = 1
	assert.NotEqual(t, src.Y[0], out.Y[0], "result must be a copy")
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		name       string
		adjustment int
		input      byte
		want       byte
		wantName   string
	}{
		{"brighten", 20, 100, 120, "Brightness(+20)"},
		{"darken", -50, 100, 50, "Brightness(-50)"},
		{"clamp high", 100, 200, 255, "Brightness(+100)"},
		{"clamp low", -100, 50, 0, "Brightness(-100)"},
		{"range clamp", 1000, 0, 255, "Brightness(+255)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBrightness(tt.adjustment)
			out, err := b.Apply(uniformFrame(4, 4, tt.input))
			require.NoError(t, err)
			for _, v := range out.Y {
				assert.Equal(t, tt.want, v)
			}
			assert.Equal(t, tt.wantName, b.GetName())
		})
	}
}

func TestContrast(t *testing.T) {
	out, err := NewContrast(2.0).Apply(uniformFrame(4, 4, 138))
	require.NoError(t, err)
	assert.Equal(t, byte(148), out.Y[0])

	out, err = NewContrast(0).Apply(createTestFrame(8, 2))
	require.NoError(t, err)
	for _, v := range out.Y {
		assert.Equal(t, byte(128), v)
	}

	assert.Equal(t, "Contrast(3.00)", NewContrast(10).GetName())
}

func TestNegative(t *testing.T) {
	src := createTestFrame(4, 4)
	out, err := NewNegative().Apply(src)
	require.NoError(t, err)

	for i := range src.Y {
		assert.Equal(t, 255-src.Y[i], out.Y[i])
	}
	assert.Equal(t, byte(155), out.U[0])
	assert.Equal(t, byte(95), out.V[0])

	twice, err := NewNegative().Apply(out)
	require.NoError(t, err)
	assert.Equal(t, src.Bytes(), twice.Bytes())
}

func TestPosterize(t *testing.T) {
	p := NewPosterize(2)
	out, err := p.Apply(createTestFrame(16, 1))
	require.NoError(t, err)
	for _, v := range out.Y {
		assert.True(t, v == 0 || v == 255, "got %d", v)
	}
	assert.Equal(t, "Posterize(2)", NewPosterize(0).GetName())
}

func TestChromaFilters(t *testing.T) {
	src := createTestFrame(6, 6)

	gray, err := NewGrayscale().Apply(src)
	require.NoError(t, err)
	assert.Equal(t, src.Y, gray.Y)
	for i := range gray.U {
		assert.Equal(t, byte(128), gray.U[i])
		assert.Equal(t, byte(128), gray.V[i])
	}

	sepia, err := NewSepia().Apply(src)
	require.NoError(t, err)
	assert.Equal(t, src.Y, sepia.Y)
	assert.Equal(t, byte(sepiaU), sepia.U[0])
	assert.Equal(t, byte(sepiaV), sepia.V[0])
}

func TestColorTemperature(t *testing.T) {
	tests := []struct {
		temperature int
		wantName    string
		wantU       byte
		wantV       byte
	}{
		{50, "ColorTemperature(Warm+50)", 80, 180},
		{-30, "ColorTemperature(Cool-30)", 112, 148},
		{0, "ColorTemperature(Neutral)", 100, 160},
		{150, "ColorTemperature(Warm+100)", 60, 200},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			src := createTestFrame(4, 4)
			c := NewColorTemperature(tt.temperature)
			out, err := c.Apply(src)
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, c.GetName())
			assert.Equal(t, src.Y, out.Y, "luma untouched")
			assert.Equal(t, tt.wantU, out.U[0])
			assert.Equal(t, tt.wantV, out.V[0])
		})
	}
}

func TestSpatialFiltersOnUniformFrame(t *testing.T) {
	src := uniformFrame(8, 8, 90)

	blur, err := NewBoxBlur(3).Apply(src)
	require.NoError(t, err)
	assert.Equal(t, src.Y, blur.Y)

	sharp, err := NewSharpen(1.0).Apply(src)
	require.NoError(t, err)
	assert.Equal(t, src.Y, sharp.Y)

	edges, err := NewEdgeDetect().Apply(src)
	require.NoError(t, err)
	for _, v := range edges.Y {
		assert.Equal(t, byte(0), v)
	}

	emboss, err := NewEmboss().Apply(src)
	require.NoError(t, err)
	for _, v := range emboss.Y {
		assert.Equal(t, byte(128), v)
	}
}

func TestEdgeDetectFindsVerticalEdge(t *testing.T) {
	f := uniformFrame(8, 4, 0)
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			f.Y[y*f.YStride+x] = 200
		}
	}

	out, err := NewEdgeDetect().Apply(f)
	require.NoError(t, err)
	assert.Equal(t, byte(0), out.Y[1*out.YStride+1])
	assert.Equal(t, byte(255), out.Y[1*out.YStride+4])
}

func TestMirror(t *testing.T) {
	src := createTestFrame(5, 3)
	out, err := NewMirror().Apply(src)
	require.NoError(t, err)

	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, src.Y[y*5+x], out.Y[y*5+(4-x)])
		}
	}
	back, err := NewMirror().Apply(out)
	require.NoError(t, err)
	assert.Equal(t, src.Bytes(), back.Bytes())
}

func TestChain(t *testing.T) {
	chain := NewChain(NewBrightness(10))
	chain.Add(NewGrayscale())
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, "Chain(Brightness(+10),Grayscale)", chain.GetName())

	out, err := chain.Apply(uniformFrame(4, 4, 100))
	require.NoError(t, err)
	assert.Equal(t, byte(110), out.Y[0])

	empty, err := NewChain().Apply(uniformFrame(2, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, byte(5), empty.Y[0])

	_, err = chain.Apply(nil)
	assert.True(t, errors.Is(err, ErrNilFrame))
}

type failingFilter struct{}

func (failingFilter) Apply(*frame.I420) (*frame.I420, error) { return nil, errors.New("boom") }
func (failingFilter) GetName() string                        { return "Failing" }

func TestChain_ReportsFailingFilter(t *testing.T) {
	chain := NewChain(NewIdentity(), failingFilter{})
	_, err := chain.Apply(uniformFrame(2, 2, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter 1 (Failing) failed")
}
