// Package hilbert implements xy<->d conversion on a Hilbert space-filling
// curve of a given order, used by april/ to rasterize a geometry's MBR into
// a run of cell indices (spec.md §4.3 rasterization). There is no
// space-filling-curve library anywhere in the example pack (see
// DESIGN.md), so this is a direct, stdlib-only port of the standard
// rotate-on-quadrant recurrence.
package hilbert

// Curve is a Hilbert curve of side 2^Order, so it covers Order*2 bits of
// distance (d) and indexes an Order-bit-per-axis (x,y) grid.
type Curve struct {
	Order uint
	side  uint32
}

// New constructs a Curve of the given order. Order must be <= 16 so that
// Side*Side fits in a uint32 cell index (matching interval.PosType).
func New(order uint) Curve {
	return Curve{Order: order, side: 1 << order}
}

// Side returns the curve's grid side length, 2^Order.
func (c Curve) Side() uint32 { return c.side }

// NumCells returns Side*Side, the total number of grid cells.
func (c Curve) NumCells() uint64 { return uint64(c.side) * uint64(c.side) }

// XYToD maps a grid coordinate to its distance along the curve.
func (c Curve) XYToD(x, y uint32) uint32 {
	var d uint32
	for s := c.side / 2; s > 0; s /= 2 {
		var rx, ry uint32
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		x, y = rotate(s, x, y, rx, ry)
	}
	return d
}

// DToXY maps a distance along the curve back to its grid coordinate.
func (c Curve) DToXY(d uint32) (x, y uint32) {
	for s := uint32(1); s < c.side; s *= 2 {
		rx := 1 & (d / 2)
		ry := 1 & (d ^ rx)
		x, y = rotate(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		d /= 4
	}
	return x, y
}

// rotate performs the quadrant rotation/reflection step of the standard
// Hilbert curve recurrence.
func rotate(s, x, y, rx, ry uint32) (uint32, uint32) {
	if ry != 0 {
		return x, y
	}
	if rx == 1 {
		x = s - 1 - x
		y = s - 1 - y
	}
	return y, x
}
