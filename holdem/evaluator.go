package holdem

import "holdem-live/card"

// HandRank is an evaluator's verdict on one player's best hand. Higher
// scores win; equal scores tie.
type HandRank struct {
	Score       int32
	Description string
}

// HandEvaluator ranks a player's hole cards against a complete five card
// board. Omaha evaluators must use exactly two hole cards.
type HandEvaluator interface {
	Rank(gameType GameType, hole, board []card.Card) (HandRank, error)
}
