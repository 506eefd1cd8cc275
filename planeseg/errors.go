package planeseg

import "fmt"

// DimensionMismatchError is returned when the input point array does not
// match the pipeline's configured (Height*Width, 3) shape (spec.md §7).
type DimensionMismatchError struct {
	GotRows, WantRows int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("point cloud has %d rows, expected %d (height*width)", e.GotRows, e.WantRows)
}

// InvalidConfigError is returned when a Config fails validation before any
// pipeline work begins (spec.md §7). Reasons accumulates every violation
// found, not just the first.
type InvalidConfigError struct {
	Reasons []string
}

func (e *InvalidConfigError) Error() string {
	if len(e.Reasons) == 1 {
		return fmt.Sprintf("invalid config: %s", e.Reasons[0])
	}
	return fmt.Sprintf("invalid config (%d issues): %v", len(e.Reasons), e.Reasons)
}

// InsufficientPointsError indicates a PlanarStats.Calculate call was made
// on fewer than 3 points; it signals an internal bug rather than a bad
// caller input (spec.md §4.1, §7).
type InsufficientPointsError struct {
	Count int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points for plane fit: have %d, need at least 3", e.Count)
}

// IndexOutOfRangeError is an internal guard raised by the region grower
// (spec.md §7) when a neighbor computation produces a cell index outside
// the grid.
type IndexOutOfRangeError struct {
	Index, Bound int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("cell index %d out of range [0,%d)", e.Index, e.Bound)
}
