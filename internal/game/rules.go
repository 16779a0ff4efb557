package game

import "github.com/hailam/checkersplay/internal/board"

// Rules configures the optional parts of the rule set. The zero value plays
// per-piece mandatory capture with no draw rules.
type Rules struct {
	// Capture selects per-piece or board-wide mandatory capture.
	Capture board.CaptureRule `json:"capture"`

	// PromotionEndsChain stops a jump chain when the jumping man is crowned.
	PromotionEndsChain bool `json:"promotionEndsChain"`

	// MaxQuietPlies declares a draw after this many consecutive plies
	// without a capture or a man moving. Zero disables the rule.
	MaxQuietPlies int `json:"maxQuietPlies"`

	// RepetitionLimit declares a draw when the same position with the same
	// side to move occurs this many times. Zero disables the rule.
	RepetitionLimit int `json:"repetitionLimit"`
}

// DefaultRules returns the rules used when nothing else is configured.
func DefaultRules() Rules {
	return Rules{Capture: board.CapturePerPiece}
}

// StrictRules returns tournament-style rules: board-wide mandatory capture,
// crowning ends the turn, 40-move and threefold repetition draws.
func StrictRules() Rules {
	return Rules{
		Capture:            board.CaptureMandatory,
		PromotionEndsChain: true,
		MaxQuietPlies:      80,
		RepetitionLimit:    3,
	}
}
