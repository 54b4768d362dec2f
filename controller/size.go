package controller

import (
	"fmt"
	"math"
)

// aspectTolerance is how far a size's aspect ratio may differ from the
// view's and still count as matching.
const aspectTolerance = 0.1

// Size is a camera output resolution in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// String formats the size as WIDTHxHEIGHT.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// AspectRatio returns width divided by height.
func (s Size) AspectRatio() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// ParseSize parses a WIDTHxHEIGHT string.
func ParseSize(str string) (Size, error) {
	var s Size
	if _, err := fmt.Sscanf(str, "%dx%d", &s.Width, &s.Height); err != nil {
		return Size{}, fmt.Errorf("invalid size %q: %w", str, err)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", str)
	}
	return s, nil
}

// OptimalPreviewSize picks the output size best suited to a w x h view.
// Among sizes whose aspect ratio is within 0.1 of the view's it returns the
// one whose height is closest to h; the first such size wins ties. When no
// size matches the aspect ratio, the closest height overall is used.
func OptimalPreviewSize(sizes []Size, w, h int) (Size, error) {
	if len(sizes) == 0 {
		return Size{}, ErrNoOutputSizes
	}
	if h <= 0 || w <= 0 {
		return Size{}, fmt.Errorf("invalid view size %dx%d", w, h)
	}

	target := float64(w) / float64(h)
	if best, ok := closestHeight(sizes, h, func(s Size) bool {
		return math.Abs(s.AspectRatio()-target) <= aspectTolerance
	}); ok {
		return best, nil
	}
	best, _ := closestHeight(sizes, h, func(Size) bool { return true })
	return best, nil
}

func closestHeight(sizes []Size, h int, accept func(Size) bool) (Size, bool) {
	var (
		best    Size
		found   bool
		minDiff = math.MaxInt
	)
	for _, s := range sizes {
		if !accept(s) {
			continue
		}
		if d := abs(s.Height - h); d < minDiff {
			best, minDiff, found = s, d, true
		}
	}
	return best, found
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
