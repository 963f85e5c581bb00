package engine

// Contains reports whether cells holds c
func Contains(cells []Cell, c Cell) bool {
	for _, cell := range cells {
		if cell == c {
			return true
		}
	}
	return false
}

// FreeCells lists, row by row, every board cell not present in occupied
func FreeCells(width, height int, occupied map[Cell]bool) []Cell {
	capacity := width*height - len(occupied)
	if capacity < 0 {
		capacity = 0
	}
	free := make([]Cell, 0, capacity)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := Cell{X: x, Y: y}
			if !occupied[c] {
				free = append(free, c)
			}
		}
	}
	return free
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
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

// SafeDirections returns the headings from the snapshot that neither leave
// the board nor run into the body on the next tick. The tail cell counts as
// free, since it moves away unless food is eaten, except under StrictTail.
func SafeDirections(s Snapshot) []Direction {
	if len(s.Snake) == 0 || s.GameOver {
		return nil
	}
	head := s.Snake[0]
	body := s.Snake[1:]
	if len(body) > 0 && !s.StrictTail {
		body = body[:len(body)-1]
	}

	var safe []Direction
	for _, d := range Directions {
		if d == s.Direction.Opposite() {
			continue
		}
		dx, dy := d.Delta()
		next := head.Add(dx, dy)
		if next.X < 0 || next.X >= s.Width || next.Y < 0 || next.Y >= s.Height {
			continue
		}
		if Contains(body, next) {
			continue
		}
		safe = append(safe, d)
	}
	return safe
}
