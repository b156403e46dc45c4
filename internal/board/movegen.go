package board

import "fmt"

// forward returns the free ray directions for a color: the single
// rook direction and the two bishop diagonals pointing at the enemy.
func forward(c Color) (rook Direction, diag [2]Direction) {
	if c == White {
		return North, [2]Direction{NorthWest, NorthEast}
	}
	return South, [2]Direction{SouthWest, SouthEast}
}

// GenerateMoves generates every move for side. Forward moves may land on
// an empty square or capture; every other move must capture the first
// piece met. The opposing runner is never a target.
//
// If side's runner is off its lane the error wraps ErrRunnerOffLane and the
// returned list holds the remaining moves.
func (p *Position) GenerateMoves(t *Tables, side Color) (*MoveList, error) {
	ml := NewMoveList()
	if side >= NoColor {
		return ml, fmt.Errorf("generate moves: bad color %d", side)
	}
	them := side.Other()
	occupied := p.AllOccupied
	targets := p.Occupied[them] &^ p.Pieces[them][Runner]
	free := ^occupied & BoardMask

	p.generatePawnMoves(ml, side, targets, free)

	knights := p.Pieces[side][Knight]
	piece := NewPiece(Knight, side)
	for knights != 0 {
		from := knights.PopLSB()
		leaps := t.KnightLeaps(from)
		for leaps != 0 {
			to := leaps.PopLSB()
			ahead := to > from
			if side == Black {
				ahead = to < from
			}
			if targets.IsSet(to) || (ahead && free.IsSet(to)) {
				ml.Add(NewMove(piece, from, to))
			}
		}
	}

	rookDir, diagDirs := forward(side)

	rooks := p.Pieces[side][Rook]
	piece = NewPiece(Rook, side)
	for rooks != 0 {
		from := rooks.PopLSB()
		for _, d := range [4]Direction{North, East, South, West} {
			p.addRay(ml, t, piece, from, d, d == rookDir, targets)
		}
	}

	bishops := p.Pieces[side][Bishop]
	piece = NewPiece(Bishop, side)
	for bishops != 0 {
		from := bishops.PopLSB()
		for _, d := range [4]Direction{NorthWest, NorthEast, SouthWest, SouthEast} {
			p.addRay(ml, t, piece, from, d, d == diagDirs[0] || d == diagDirs[1], targets)
		}
	}

	return ml, p.generateRunnerMove(ml, t, side)
}

// addRay adds the moves along one ray. A free ray yields every empty
// square up to the blocker; any ray yields the blocker if it is a target.
func (p *Position) addRay(ml *MoveList, t *Tables, piece Piece, from Square, d Direction, free bool, targets Bitboard) {
	ray := t.RayAttacks(d, from, p.AllOccupied)
	dests := ray & targets
	if free {
		dests |= ray &^ p.AllOccupied
	}
	for dests != 0 {
		ml.Add(NewMove(piece, from, dests.PopLSB()))
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, targets, free Bitboard) {
	pawns := p.Pieces[us][Pawn]
	piece := NewPiece(Pawn, us)

	var push, attackL, attackR Bitboard
	var pushDir, leftDir, rightDir int
	if us == White {
		push = pawns.North() & free
		attackL = pawns.NorthWest() & targets
		attackR = pawns.NorthEast() & targets
		pushDir, leftDir, rightDir = 8, 7, 9
	} else {
		push = pawns.South() & free
		attackL = pawns.SouthWest() & targets
		attackR = pawns.SouthEast() & targets
		pushDir, leftDir, rightDir = -8, -9, -7
	}

	for push != 0 {
		to := push.PopLSB()
		ml.Add(NewMove(piece, Square(int(to)-pushDir), to))
	}
	for attackL != 0 {
		to := attackL.PopLSB()
		ml.Add(NewMove(piece, Square(int(to)-leftDir), to))
	}
	for attackR != 0 {
		to := attackR.PopLSB()
		ml.Add(NewMove(piece, Square(int(to)-rightDir), to))
	}
}

// generateRunnerMove appends the runner step. An occupied waypoint is
// only taken when nothing else can move; the runner then removes whatever
// stands there, own pieces included.
func (p *Position) generateRunnerMove(ml *MoveList, t *Tables, side Color) error {
	runner := p.Pieces[side][Runner]
	if runner == 0 {
		return nil
	}
	from := runner.LSB()
	if t.LaneProgress(side, from) < 0 {
		return fmt.Errorf("generate moves: %v runner at %v: %w", side, from, ErrRunnerOffLane)
	}
	to, ok := t.NextWaypoint(side, from)
	if !ok {
		return nil
	}
	if p.IsEmpty(to) || ml.Len() == 0 {
		ml.addRunner(NewMove(NewPiece(Runner, side), from, to))
	}
	return nil
}

// Perft counts leaf positions at the given depth with sides alternating,
// starting with side. Finished games are leaves.
func (p *Position) Perft(t *Tables, side Color, depth int) (uint64, error) {
	if depth == 0 || p.State(t) != InProgress {
		return 1, nil
	}
	ml, err := p.GenerateMoves(t, side)
	if err != nil {
		return 0, err
	}
	if depth == 1 {
		return uint64(ml.Len()), nil
	}

	var nodes uint64
	for _, m := range ml.Slice() {
		child := p.Child(m)
		n, err := child.Perft(t, side.Other(), depth-1)
		if err != nil {
			return 0, err
		}
		nodes += n
	}
	return nodes, nil
}
