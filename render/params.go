package render

import "fmt"

// Params is the renderer parameter word exchanged through SetParameters and
// Parameters.
//
//	bits 0..3  active filter index
//	bits 4..7  number of filters the renderer offers (read-only)
//
// The remaining bits are reserved and preserved by WithFilter.
type Params uint32

const (
	filterMask    Params = 0x0000000F
	maxFilterMask Params = 0x000000F0
	maxShift             = 4

	// MaxFilters is the largest filter count the bitfield can describe.
	MaxFilters = 15
)

// NewParams packs an active filter index and the filter count.
func NewParams(filter, maxFilter int) Params {
	return Params(uint32(filter)&uint32(filterMask)) |
		Params((uint32(maxFilter)<<maxShift)&uint32(maxFilterMask))
}

// Filter returns the active filter index.
func (p Params) Filter() int {
	return int(p & filterMask)
}

// MaxFilter returns the number of filters available.
func (p Params) MaxFilter() int {
	return int((p & maxFilterMask) >> maxShift)
}

// WithFilter returns p with the active filter replaced.
func (p Params) WithFilter(filter int) Params {
	return (p &^ filterMask) | (Params(filter) & filterMask)
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("filter %d/%d (0x%08X)", p.Filter(), p.MaxFilter(), uint32(p))
}
