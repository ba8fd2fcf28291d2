package dla

import "math"

// Position is a centred lattice coordinate.
type Position struct {
	X, Y, Z int
}

// Origin is the lattice midpoint where the seed particle sits.
var Origin = Position{}

// directions lists the six axis-aligned unit hops in draw order.
var directions = [6]Position{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Neighbor returns the axis neighbour for direction index i in [0, 6).
func (p Position) Neighbor(i int) Position {
	return p.Add(directions[i])
}

// Distance returns the Euclidean distance from the origin.
func (p Position) Distance() float64 {
	x, y, z := float64(p.X), float64(p.Y), float64(p.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

func (p Position) axis(a int) int {
	switch a {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// roundOutward rounds v away from zero to the next integer.
func roundOutward(v float64) int {
	if v < 0 {
		return -int(math.Ceil(-v))
	}
	return int(math.Ceil(v))
}
