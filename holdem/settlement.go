package holdem

import (
	"fmt"

	"holdem-live/card"
)

// HandResult is the outcome of one hand as broadcast to the table.
type HandResult struct {
	HandID     string        `json:"handId"`
	HandNumber int           `json:"handNumber"`
	FoldOut    bool          `json:"foldOut"`
	Board      card.CardList `json:"board"`
	Pots       []PotResult   `json:"pots"`
	Winners    []Winner      `json:"winners"`
	Shown      []ShownHand   `json:"shown,omitempty"`
	Rake       int64         `json:"rake"`
}

type PotResult struct {
	Amount   int64    `json:"amount"`
	Rake     int64    `json:"rake"`
	Eligible []string `json:"eligible"`
	Winners  []string `json:"winners"`
	Shares   []int64  `json:"shares"`
}

type Winner struct {
	PlayerID        string `json:"playerId"`
	Seat            int    `json:"seat"`
	ChipsWon        int64  `json:"chipsWon"`
	HandDescription string `json:"handDescription,omitempty"`
}

type ShownHand struct {
	PlayerID    string        `json:"playerId"`
	Seat        int           `json:"seat"`
	Cards       card.CardList `json:"cards"`
	Description string        `json:"description"`
}

// settleFoldOut pays the last player in the hand the whole pot net of rake.
// No cards are evaluated.
func (t *Table) settleFoldOut() error {
	var winner *Player
	for _, p := range t.Seated {
		if p.InHand {
			winner = p
			break
		}
	}
	if winner == nil {
		return Internal("settle", fmt.Errorf("fold-out with no player in hand"))
	}
	rake := rakeOf(t.Pot, t.Config.TableFeeRate)
	net := t.Pot - rake
	winner.Chips += net

	t.finishHand(HandResult{
		FoldOut: true,
		Pots: []PotResult{{
			Amount:   t.Pot,
			Rake:     rake,
			Eligible: []string{winner.ID},
			Winners:  []string{winner.ID},
			Shares:   []int64{net},
		}},
		Winners: []Winner{{PlayerID: winner.ID, Seat: winner.Seat, ChipsWon: net}},
		Rake:    rake,
	})
	return nil
}

// settleShowdown 需要在公共牌补齐到 5 张之后调用
func (t *Table) settleShowdown() error {
	if t.eval == nil {
		return Internal("settle", fmt.Errorf("no hand evaluator"))
	}
	ranks := make(map[string]HandRank, len(t.Seated))
	var shown []ShownHand
	for _, p := range t.Seated {
		if !p.InHand {
			continue
		}
		r, err := t.eval.Rank(t.Config.GameType, p.HoleCards, t.CommunityCards)
		if err != nil {
			return Internal("evaluate", err)
		}
		ranks[p.ID] = r
		shown = append(shown, ShownHand{PlayerID: p.ID, Seat: p.Seat, Cards: p.HoleCards.Clone(), Description: r.Description})
	}

	pots := buildPots(t.Seated, t.DeadCommitments)
	var total int64
	for _, sp := range pots {
		total += sp.amount
	}
	if total != t.Pot {
		return Internal("settle", fmt.Errorf("pot mismatch: pots=%d pot=%d", total, t.Pot))
	}

	won := make(map[string]int64)
	result := HandResult{Shown: shown}
	for _, sp := range pots {
		rake := rakeOf(sp.amount, t.Config.TableFeeRate)
		net := sp.amount - rake

		var best int32
		var winners []*Player
		for _, p := range sp.eligible {
			score := ranks[p.ID].Score
			switch {
			case len(winners) == 0 || score > best:
				best = score
				winners = []*Player{p}
			case score == best:
				winners = append(winners, p)
			}
		}
		shares := splitPot(net, winners)

		pr := PotResult{Amount: sp.amount, Rake: rake, Shares: shares}
		for _, p := range sp.eligible {
			pr.Eligible = append(pr.Eligible, p.ID)
		}
		for i, w := range winners {
			w.Chips += shares[i]
			won[w.ID] += shares[i]
			pr.Winners = append(pr.Winners, w.ID)
		}
		result.Pots = append(result.Pots, pr)
		result.Rake += rake
	}

	for _, p := range t.Seated {
		if amount, ok := won[p.ID]; ok && amount > 0 {
			result.Winners = append(result.Winners, Winner{
				PlayerID:        p.ID,
				Seat:            p.Seat,
				ChipsWon:        amount,
				HandDescription: ranks[p.ID].Description,
			})
		}
	}
	t.finishHand(result)
	return nil
}

func (t *Table) finishHand(result HandResult) {
	result.HandID = t.HandID
	result.HandNumber = t.HandNumber
	result.Board = t.CommunityCards.Clone()

	t.TableEarnings += result.Rake
	t.Pot = 0
	t.DeadCommitments = nil
	t.CurrentBet = 0
	t.HandOver = true
	t.TurnSeq++
	t.LastResult = &result

	t.emit(NotifyHandResult, "", result)
	t.emitTableUpdate()
}
