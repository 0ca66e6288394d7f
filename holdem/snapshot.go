package holdem

import "holdem-live/card"

type PlayerView struct {
	ID                   string        `json:"id"`
	Seat                 int           `json:"seat"`
	Chips                int64         `json:"chips"`
	Connected            bool          `json:"connected"`
	HoleCards            card.CardList `json:"holeCards"`
	InHand               bool          `json:"inHand"`
	CurrentBet           int64         `json:"currentBet"`
	HasActed             bool          `json:"hasActed"`
	AllIn                bool          `json:"allIn"`
	LastAction           ActionType    `json:"lastAction"`
	ConsecutiveAfkRounds int           `json:"consecutiveAfkRounds"`
}

// Snapshot is the client-facing view of a table. Hole cards of other
// players are masked unless they were shown at showdown.
type Snapshot struct {
	ID           string   `json:"id"`
	GameType     GameType `json:"gameType"`
	MaxPlayers   int      `json:"maxPlayers"`
	BuyIn        int64    `json:"buyIn"`
	SmallBlind   int64    `json:"smallBlind"`
	BigBlind     int64    `json:"bigBlind"`
	MinimumBet   int64    `json:"minimumBet"`
	TableFeeRate float64  `json:"tableFeeRate"`

	Status             Status        `json:"status"`
	Round              Round         `json:"round"`
	HandNumber         int           `json:"handNumber"`
	HandID             string        `json:"handId,omitempty"`
	HandOver           bool          `json:"handOver"`
	DealerSeat         int           `json:"dealerSeat"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	CurrentPlayerID    string        `json:"currentPlayerId,omitempty"`
	CurrentBet         int64         `json:"currentBet"`
	Pot                int64         `json:"pot"`
	CommunityCards     card.CardList `json:"communityCards"`
	TableEarnings      int64         `json:"tableEarnings"`

	SeatedPlayers  []PlayerView `json:"seatedPlayers"`
	WaitingPlayers []PlayerView `json:"waitingPlayers"`
	LastResult     *HandResult  `json:"lastResult,omitempty"`
}

// Snapshot returns the public view with every hole card masked.
func (t *Table) Snapshot() Snapshot {
	return t.SnapshotFor("")
}

// SnapshotFor returns the view as seen by viewerID, who sees their own cards.
func (t *Table) SnapshotFor(viewerID string) Snapshot {
	s := Snapshot{
		ID:                 t.ID,
		GameType:           t.Config.GameType,
		MaxPlayers:         t.Config.MaxPlayers,
		BuyIn:              t.Config.BuyIn,
		SmallBlind:         t.Config.SmallBlind,
		BigBlind:           t.Config.BigBlind,
		MinimumBet:         t.Config.MinimumBet,
		TableFeeRate:       t.Config.TableFeeRate,
		Status:             t.Status,
		Round:              t.Round,
		HandNumber:         t.HandNumber,
		HandID:             t.HandID,
		HandOver:           t.HandOver,
		DealerSeat:         t.DealerSeat,
		CurrentPlayerIndex: t.CurrentPlayerIndex,
		CurrentBet:         t.CurrentBet,
		Pot:                t.Pot,
		CommunityCards:     t.CommunityCards.Clone(),
		TableEarnings:      t.TableEarnings,
		SeatedPlayers:      make([]PlayerView, 0, len(t.Seated)),
		WaitingPlayers:     make([]PlayerView, 0, len(t.Waiting)),
		LastResult:         t.LastResult,
	}
	if turn, ok := t.CurrentTurn(); ok {
		s.CurrentPlayerID = turn.PlayerID
	}

	shown := make(map[string]bool)
	if t.HandOver && t.LastResult != nil {
		for _, h := range t.LastResult.Shown {
			shown[h.PlayerID] = true
		}
	}
	for _, p := range t.Seated {
		s.SeatedPlayers = append(s.SeatedPlayers, t.view(p, p.ID == viewerID || shown[p.ID]))
	}
	for _, p := range t.Waiting {
		s.WaitingPlayers = append(s.WaitingPlayers, t.view(p, false))
	}
	return s
}

func (t *Table) view(p *Player, reveal bool) PlayerView {
	v := PlayerView{
		ID:                   p.ID,
		Seat:                 p.Seat,
		Chips:                p.Chips,
		Connected:            p.Connected,
		InHand:               p.InHand,
		CurrentBet:           p.CurrentBet,
		HasActed:             p.HasActed,
		AllIn:                p.AllIn(),
		LastAction:           p.LastAction,
		ConsecutiveAfkRounds: p.ConsecutiveAfkRounds,
	}
	v.HoleCards = make(card.CardList, len(p.HoleCards))
	for i, c := range p.HoleCards {
		switch {
		case !c.Valid():
			v.HoleCards[i] = card.CardInvalid
		case reveal:
			v.HoleCards[i] = c
		default:
			v.HoleCards[i] = card.CardRear
		}
	}
	return v
}
