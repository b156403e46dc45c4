package board

// Fingerprint keys, one per [Color][PieceType][Square]. The PRNG seed is
// fixed so hashes are stable across runs and can be stored.
var zobristPiece [2][NumPieceTypes][64]uint64

func init() {
	initZobrist()
}

// Simple PRNG for reproducible keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x7A3C51D2E90B4F61)
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Runner; pt++ {
			for sq := range zobristPiece[c][pt] {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
}

// ZobristPiece returns the key for a piece on a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// Hash returns the position fingerprint: the XOR of the keys of every
// occupied square. Equal placements hash equally regardless of how
// they were reached.
func (p *Position) Hash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Runner; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				h ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	return h
}
