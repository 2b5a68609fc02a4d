package engine

var (
	leftOf = map[Direction]Direction{
		North: West,
		West:  South,
		South: East,
		East:  North,
	}
	rightOf = map[Direction]Direction{
		North: East,
		East:  South,
		South: West,
		West:  North,
	}
	unitVector = map[Direction]Position{
		North: {X: 0, Y: -1},
		South: {X: 0, Y: 1},
		East:  {X: 1, Y: 0},
		West:  {X: -1, Y: 0},
	}
)

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	_, ok := unitVector[d]
	return ok
}

// TurnLeft rotates d a quarter turn counter-clockwise
func TurnLeft(d Direction) Direction {
	return leftOf[d]
}

// TurnRight rotates d a quarter turn clockwise
func TurnRight(d Direction) Direction {
	return rightOf[d]
}

// Advance returns p shifted one cell in direction d. No bounds check is made.
func Advance(p Position, d Direction) Position {
	delta := unitVector[d]
	return Position{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// InBounds checks whether p lies inside a gridSize x gridSize grid
func InBounds(p Position, gridSize int) bool {
	return p.X >= 0 && p.X < gridSize && p.Y >= 0 && p.Y < gridSize
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
