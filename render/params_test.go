package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	tests := []struct {
		name      string
		filter    int
		maxFilter int
		want      Params
	}{
		{"zero", 0, 0, 0x00},
		{"default bank", 3, 13, 0xD3},
		{"limits", 15, 15, 0xFF},
		{"overflow masked", 17, 18, 0x21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams(tt.filter, tt.maxFilter)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, int(tt.want&filterMask), p.Filter())
			assert.Equal(t, int(tt.want&maxFilterMask)>>maxShift, p.MaxFilter())
		})
	}
}

func TestParams_WithFilter(t *testing.T) {
	p := Params(0xABCD00D2)
	q := p.WithFilter(7)

	assert.Equal(t, 7, q.Filter())
	assert.Equal(t, 13, q.MaxFilter())
	assert.Equal(t, Params(0xABCD00D7), q, "reserved bits preserved")
	assert.Equal(t, "filter 7/13 (0xABCD00D7)", q.String())
}
