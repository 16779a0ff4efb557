package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [BlackKing + 1][64]uint64 // [Piece][Square], NoPiece row left zero
	zobristSideToMove uint64                    // XOR when Black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
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
	rng := newPRNG(0x98F107A2BEEF1234)

	for pc := RedMan; pc <= BlackKing; pc++ {
		for sq := Square(0); sq < NoSquare; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}

	zobristSideToMove = rng.next()
}

// Hash returns the Zobrist hash of the board with the given side to move.
func (b *Board) Hash(turn Player) uint64 {
	var h uint64
	b.Occupied().ForEach(func(sq Square) {
		h ^= zobristPiece[b.squares[sq]][sq]
	})
	if turn == Black {
		h ^= zobristSideToMove
	}
	return h
}
