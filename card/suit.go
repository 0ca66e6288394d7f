package card

import "fmt"

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️
)

var Suits = [...]Suit{Spade, Heart, Club, Diamond}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Letter is the single lower-case letter used on the wire.
func (s Suit) Letter() string {
	switch s {
	case Diamond:
		return "d"
	case Club:
		return "c"
	case Heart:
		return "h"
	case Spade:
		return "s"
	}
	return "?"
}

func parseSuit(b byte) (Suit, error) {
	switch b {
	case 's', 'S':
		return Spade, nil
	case 'h', 'H':
		return Heart, nil
	case 'c', 'C':
		return Club, nil
	case 'd', 'D':
		return Diamond, nil
	}
	return 0, fmt.Errorf("invalid suit: %c", b)
}
