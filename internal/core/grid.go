package core

import "fmt"

// Lattice stores a cubic 3-D occupancy grid of side Extent in one flat
// buffer. Coordinates are centred: (0,0,0) maps to the middle cell, and a
// coordinate c on any axis is valid when 0 <= c+Extent/2 < Extent.
type Lattice struct {
	extent int
	half   int
	data   []uint8
}

// NewLattice allocates an empty lattice with the given side length.
func NewLattice(extent int) *Lattice {
	if extent <= 0 {
		extent = 1
	}
	return &Lattice{extent: extent, half: extent / 2, data: make([]uint8, extent*extent*extent)}
}

// Extent returns the side length of the lattice.
func (l *Lattice) Extent() int { return l.extent }

// Index returns the linear slice index for centred coordinates and whether
// the coordinates fall inside the lattice.
func (l *Lattice) Index(x, y, z int) (int, bool) {
	ix, iy, iz := x+l.half, y+l.half, z+l.half
	if ix < 0 || ix >= l.extent || iy < 0 || iy >= l.extent || iz < 0 || iz >= l.extent {
		return 0, false
	}
	return (ix*l.extent+iy)*l.extent + iz, true
}

// Contains reports whether the centred coordinates address a lattice cell.
func (l *Lattice) Contains(x, y, z int) bool {
	_, ok := l.Index(x, y, z)
	return ok
}

// Occupied reports whether the cell at the centred coordinates is taken. It
// panics when the coordinates are outside the lattice; callers check
// Contains first.
func (l *Lattice) Occupied(x, y, z int) bool {
	return l.data[l.mustIndex(x, y, z)] != 0
}

// Set marks the cell at the centred coordinates as occupied or empty. It
// panics when the coordinates are outside the lattice.
func (l *Lattice) Set(x, y, z int, occupied bool) {
	var v uint8
	if occupied {
		v = 1
	}
	l.data[l.mustIndex(x, y, z)] = v
}

// Count returns the number of occupied cells. It scans the whole buffer.
func (l *Lattice) Count() int {
	n := 0
	for _, v := range l.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clear empties every cell.
func (l *Lattice) Clear() {
	clear(l.data)
}

func (l *Lattice) mustIndex(x, y, z int) int {
	idx, ok := l.Index(x, y, z)
	if !ok {
		panic(fmt.Sprintf("lattice: (%d,%d,%d) outside extent %d", x, y, z, l.extent))
	}
	return idx
}
