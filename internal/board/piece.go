package board

// Color identifies a side. White is side A and moves toward rank 8;
// Black is side B and moves toward rank 1.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType is a piece kind without a color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Rook
	Bishop
	Runner
	NoPieceType PieceType = 5
)

// NumPieceTypes is the number of real piece types.
const NumPieceTypes = 5

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Rook:
		return "Rook"
	case Bishop:
		return "Bishop"
	case Runner:
		return "Runner"
	default:
		return "None"
	}
}

// Char returns the lowercase layout letter for the piece type.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnrbc"[pt]
}

// Piece combines a PieceType and a Color: pieceType + color*5.
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn) + Piece(White)*NumPieceTypes
	WhiteKnight Piece = Piece(Knight) + Piece(White)*NumPieceTypes
	WhiteRook   Piece = Piece(Rook) + Piece(White)*NumPieceTypes
	WhiteBishop Piece = Piece(Bishop) + Piece(White)*NumPieceTypes
	WhiteRunner Piece = Piece(Runner) + Piece(White)*NumPieceTypes
	BlackPawn   Piece = Piece(Pawn) + Piece(Black)*NumPieceTypes
	BlackKnight Piece = Piece(Knight) + Piece(Black)*NumPieceTypes
	BlackRook   Piece = Piece(Rook) + Piece(Black)*NumPieceTypes
	BlackBishop Piece = Piece(Bishop) + Piece(Black)*NumPieceTypes
	BlackRunner Piece = Piece(Runner) + Piece(Black)*NumPieceTypes
	NoPiece     Piece = 10
)

// NewPiece creates a Piece from a type and a color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*NumPieceTypes
}

// Type returns the piece type.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % NumPieceTypes)
}

// Color returns the piece color.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / NumPieceTypes)
}

// String returns the layout letter: uppercase White, lowercase Black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string("PNRBCpnrbc"[p])
}

// PieceFromChar converts a layout letter to a Piece.
func PieceFromChar(c byte) Piece {
	for i := Piece(0); i < NoPiece; i++ {
		if "PNRBCpnrbc"[i] == c {
			return i
		}
	}
	return NoPiece
}

// PieceValue is the material weight of each piece type used by the
// evaluation. The runner is scored by lane progress instead.
var PieceValue = [NumPieceTypes]int{10, 40, 35, 30, 0}
