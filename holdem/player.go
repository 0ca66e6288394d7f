package holdem

import "holdem-live/card"

// Player is one user's record at one table. Seat is NoSeat while the
// player is waiting.
type Player struct {
	ID        string `json:"id"`
	Seat      int    `json:"seat"`
	Chips     int64  `json:"chips"`
	Connected bool   `json:"connected"`

	HoleCards  card.CardList `json:"holeCards"`
	InHand     bool          `json:"inHand"`
	CurrentBet int64         `json:"currentBet"`
	HasActed   bool          `json:"hasActed"`
	LastAction ActionType    `json:"lastAction"`

	// Committed is everything put into the pot this hand, across streets.
	Committed int64 `json:"committed"`

	ConsecutiveAfkRounds int `json:"consecutiveAfkRounds"`
}

func newPlayer(id string) *Player {
	return &Player{ID: id, Seat: NoSeat, Connected: true}
}

func (p *Player) Seated() bool { return p.Seat != NoSeat }

// AllIn reports an in-hand player with nothing left behind.
func (p *Player) AllIn() bool { return p.InHand && p.Chips == 0 }

// CanAct reports whether the player still makes betting decisions this hand.
func (p *Player) CanAct() bool { return p.InHand && p.Chips > 0 }

func (p *Player) clone() *Player {
	cp := *p
	cp.HoleCards = p.HoleCards.Clone()
	return &cp
}

// emptyHand sets the hole card slots to n empty entries.
func (p *Player) emptyHand(n int) {
	p.HoleCards = make(card.CardList, n)
}

func (p *Player) resetForNewHand(holeCards int) {
	p.InHand = false
	p.CurrentBet = 0
	p.HasActed = false
	p.LastAction = PlayerActionTypeNone
	p.Committed = 0
	p.emptyHand(holeCards)
}

// placeBet moves up to amount chips from the stack into the current bet,
// capped at the stack (all-in for less). Returns the chips moved.
func (p *Player) placeBet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.CurrentBet += amount
	p.Committed += amount
	return amount
}

func (p *Player) fold() {
	p.InHand = false
	p.LastAction = PlayerActionTypeFold
}
