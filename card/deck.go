package card

import "math/rand"

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// StandardDeck returns the 52 rank x suit combinations in a fixed order.
func StandardDeck() CardList {
	cards := make(CardList, 0, DeckSize)
	for _, s := range Suits {
		for rank := byte(1); rank <= 13; rank++ {
			cards = append(cards, New(s, rank))
		}
	}
	return cards
}

// NewDeck returns a freshly shuffled deck. Cards are dealt with PopCard,
// from the end of the list.
func NewDeck(rng *rand.Rand) CardList {
	cards := StandardDeck()
	// rand.Shuffle is a Fisher-Yates shuffle.
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}
