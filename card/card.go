package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

const (
	CardInvalid Card = 0
	CardRear    Card = 0xFF
)

const rankLetters = "A23456789TJQK"

// New builds a card from a suit and a rank in 1..13 (A=1).
func New(s Suit, rank byte) Card {
	return Card(byte(s)<<4 | rank&0x0F)
}

// String renders the card as rank+suit, e.g. "As", "Td".
func (c Card) String() string {
	if c == CardInvalid {
		return ""
	}
	if c == CardRear {
		return "??"
	}
	rank := c.Rank()
	if rank < 1 || rank > 13 {
		return "Invalid"
	}
	return string(rankLetters[rank-1]) + c.Suit().Letter()
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	if c == CardInvalid || c == CardRear {
		return 0
	}
	return byte(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// Valid reports whether c encodes one of the 52 standard cards.
func (c Card) Valid() bool {
	r := c.Rank()
	return r >= 1 && r <= 13 && c.Suit() <= Diamond
}

// HandRealVal 返回用于比较大小的点数:
// - A 视为 14
// - 其它为原始点数
func (c Card) HandRealVal() int {
	r := int(c & 0x0F)
	if r == 1 {
		return 14
	}
	return r
}

// Parse converts a string like "As", "Td" or "10h" to a Card.
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", cardStr)
	}

	suit, err := parseSuit(cardStr[len(cardStr)-1])
	if err != nil {
		return CardInvalid, err
	}

	rankStr := strings.ToUpper(cardStr[:len(cardStr)-1])
	if rankStr == "10" {
		rankStr = "T"
	}
	if len(rankStr) != 1 {
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	idx := strings.IndexByte(rankLetters, rankStr[0])
	if idx < 0 {
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	return New(suit, byte(idx+1)), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(cardStr string) Card {
	c, err := Parse(cardStr)
	if err != nil {
		panic(err)
	}
	return c
}

// MarshalText encodes the card in its "As" form; an empty string stands
// for a card slot that holds nothing.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*c = CardInvalid
		return nil
	case "??":
		*c = CardRear
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
