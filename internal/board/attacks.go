package board

import "sync"

// Direction is one of the eight compass directions used by ray lookups.
type Direction uint8

// Directions 0-3 step toward higher square indices, 4-7 toward lower ones.
const (
	North     Direction = iota // +8
	NorthWest                  // +7
	NorthEast                  // +9
	East                       // +1
	South                      // -8
	SouthWest                  // -9
	SouthEast                  // -7
	West                       // -1
	NumDirections
)

// Positive reports whether the direction walks toward higher indices.
// The nearest blocker on a positive ray is its LSB, on a negative ray its MSB.
func (d Direction) Positive() bool {
	return d < South
}

var directionSteps = [NumDirections]struct {
	step  int
	dfile int
}{
	North:     {8, 0},
	NorthWest: {7, -1},
	NorthEast: {9, 1},
	East:      {1, 1},
	South:     {-8, 0},
	SouthWest: {-9, -1},
	SouthEast: {-7, 1},
	West:      {-1, -1},
}

// Lanes are the fixed runner paths, start to finish.
var Lanes = [2][]Square{
	White: {A1, B2, C3, D4, E4, F4, G4},
	Black: {A8, B7, C6, D5, E5, F5, G5},
}

// Tables holds the precomputed lookup data used by move generation and
// evaluation. It is immutable once built and safe to share between
// goroutines and search branches.
type Tables struct {
	square     [64]Bitboard
	squareMask [64]Bitboard
	knight     [64]Bitboard
	rays       [NumDirections][64]Bitboard

	laneNext     [2][64]Square
	laneProgress [2][64]int8
	laneFinal    [2]Square
	laneBB       [2]Bitboard
}

// NewTables builds all lookup tables.
func NewTables() *Tables {
	t := &Tables{}
	t.initSquares()
	t.initKnights()
	t.initRays()
	t.initLanes()
	return t
}

var defaultTables = sync.OnceValue(NewTables)

// DefaultTables returns a shared Tables instance, built on first use.
func DefaultTables() *Tables {
	return defaultTables()
}

func (t *Tables) initSquares() {
	for sq := 0; sq < 64; sq++ {
		bb := Bitboard(1) << sq
		t.square[sq] = bb
		t.squareMask[sq] = ^bb
	}
}

func (t *Tables) initKnights() {
	for sq := 0; sq < 64; sq++ {
		bb := t.square[sq]
		spots := [8]Bitboard{
			(bb & NotFileAB) << 6,
			(bb & NotFileA) << 15,
			(bb & NotFileH) << 17,
			(bb & NotFileGH) << 10,
			(bb & NotFileGH) >> 6,
			(bb & NotFileH) >> 15,
			(bb & NotFileA) >> 17,
			(bb & NotFileAB) >> 10,
		}
		var leaps Bitboard
		for _, s := range spots {
			leaps |= s
		}
		t.knight[sq] = leaps & BoardMask
	}
}

func (t *Tables) initRays() {
	for d := North; d < NumDirections; d++ {
		step := directionSteps[d]
		for sq := 0; sq < 64; sq++ {
			var ray Bitboard
			cur := sq
			for {
				prevFile := cur % 8
				cur += step.step
				if cur < 0 || cur >= 64 {
					break
				}
				// Horizontal and diagonal steps must move exactly one file.
				if step.dfile != 0 && cur%8 != prevFile+step.dfile {
					break
				}
				ray |= Bitboard(1) << cur
			}
			t.rays[d][sq] = ray & BoardMask
		}
	}
}

func (t *Tables) initLanes() {
	for c := White; c <= Black; c++ {
		for sq := range t.laneNext[c] {
			t.laneNext[c][sq] = NoSquare
			t.laneProgress[c][sq] = -1
		}
		lane := Lanes[c]
		for i, sq := range lane {
			t.laneProgress[c][sq] = int8(i)
			t.laneBB[c] |= t.square[sq]
			if i+1 < len(lane) {
				t.laneNext[c][sq] = lane[i+1]
			}
		}
		t.laneFinal[c] = lane[len(lane)-1]
	}
}

// SquareBB returns the single-bit mask for a square.
func (t *Tables) SquareBB(sq Square) Bitboard {
	return t.square[sq]
}

// SquareMask returns the complement of the square's bit.
func (t *Tables) SquareMask(sq Square) Bitboard {
	return t.squareMask[sq]
}

// KnightLeaps returns the knight destination set for a square.
func (t *Tables) KnightLeaps(sq Square) Bitboard {
	return t.knight[sq]
}

// Ray returns every square strictly between sq and the board edge in
// direction d, ignoring occupancy.
func (t *Tables) Ray(d Direction, sq Square) Bitboard {
	return t.rays[d][sq]
}

// RayAttacks returns the ray from sq in direction d cut at the nearest
// blocker in occupied. The blocker square itself is included.
func (t *Tables) RayAttacks(d Direction, sq Square, occupied Bitboard) Bitboard {
	ray := t.rays[d][sq]
	blockers := ray & occupied
	if blockers == 0 {
		return ray
	}
	var blocker Square
	if d.Positive() {
		blocker = blockers.LSB()
	} else {
		blocker = blockers.MSB()
	}
	return ray ^ t.rays[d][blocker]
}

// NextWaypoint returns the next lane square for a runner of color c
// standing on sq. ok is false if sq is the final waypoint or off the lane.
func (t *Tables) NextWaypoint(c Color, sq Square) (next Square, ok bool) {
	if sq >= NoSquare {
		return NoSquare, false
	}
	next = t.laneNext[c][sq]
	return next, next != NoSquare
}

// LaneProgress returns how many waypoints the runner has advanced,
// or -1 if sq is not on the lane.
func (t *Tables) LaneProgress(c Color, sq Square) int {
	if sq >= NoSquare {
		return -1
	}
	return int(t.laneProgress[c][sq])
}

// LaneFinal returns the square that wins the game for color c.
func (t *Tables) LaneFinal(c Color) Square {
	return t.laneFinal[c]
}

// LaneSquares returns the lane of color c as a bitboard.
func (t *Tables) LaneSquares(c Color) Bitboard {
	return t.laneBB[c]
}
