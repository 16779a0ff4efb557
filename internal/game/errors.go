package game

import "errors"

var (
	ErrNoLegalMoves    = errors.New("no legal moves for this selection")
	ErrIllegalMove     = errors.New("illegal move")
	ErrChainInProgress = errors.New("jump chain in progress")
	ErrGameOver        = errors.New("game already over")
)
