// Package handeval ranks poker hands with github.com/paulhankin/poker.
package handeval

import (
	"fmt"

	"github.com/paulhankin/poker"

	"holdem-live/card"
	"holdem-live/holdem"
)

// Evaluator implements holdem.HandEvaluator.
type Evaluator struct{}

func New() Evaluator { return Evaluator{} }

var suitMap = map[card.Suit]poker.Suit{
	card.Spade:   poker.Spade,
	card.Heart:   poker.Heart,
	card.Club:    poker.Club,
	card.Diamond: poker.Diamond,
}

func convert(c card.Card) (poker.Card, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("invalid card %#x", byte(c))
	}
	return poker.MakeCard(suitMap[c.Suit()], poker.Rank(c.Rank()))
}

func convertAll(cards []card.Card) ([]poker.Card, error) {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		pc, err := convert(c)
		if err != nil {
			return nil, err
		}
		out[i] = pc
	}
	return out, nil
}

// Rank evaluates the best hand. Hold'em uses any five of the seven cards;
// Omaha uses exactly two hole cards and three board cards.
func (Evaluator) Rank(gameType holdem.GameType, hole, board []card.Card) (holdem.HandRank, error) {
	if len(board) != 5 {
		return holdem.HandRank{}, fmt.Errorf("board must have 5 cards, got %d", len(board))
	}
	if len(hole) != gameType.HoleCardCount() {
		return holdem.HandRank{}, fmt.Errorf("%s needs %d hole cards, got %d", gameType, gameType.HoleCardCount(), len(hole))
	}
	h, err := convertAll(hole)
	if err != nil {
		return holdem.HandRank{}, err
	}
	b, err := convertAll(board)
	if err != nil {
		return holdem.HandRank{}, err
	}

	if gameType == holdem.GameTypeOmaha {
		return rankOmaha(h, b)
	}

	var seven [7]poker.Card
	copy(seven[:5], b)
	copy(seven[5:], h)
	desc, err := poker.Describe(seven[:])
	if err != nil {
		return holdem.HandRank{}, err
	}
	return holdem.HandRank{Score: int32(poker.Eval7(&seven)), Description: desc}, nil
}

// rankOmaha 枚举 C(4,2) x C(5,3) = 60 种组合
func rankOmaha(hole, board []poker.Card) (holdem.HandRank, error) {
	var (
		best     int16 = -1
		bestHand [5]poker.Card
	)
	for i := 0; i < len(hole); i++ {
		for j := i + 1; j < len(hole); j++ {
			for a := 0; a < len(board); a++ {
				for b := a + 1; b < len(board); b++ {
					for c := b + 1; c < len(board); c++ {
						five := [5]poker.Card{hole[i], hole[j], board[a], board[b], board[c]}
						if score := poker.Eval5(&five); score > best {
							best = score
							bestHand = five
						}
					}
				}
			}
		}
	}
	desc, err := poker.Describe(bestHand[:])
	if err != nil {
		return holdem.HandRank{}, err
	}
	return holdem.HandRank{Score: int32(best), Description: desc}, nil
}
