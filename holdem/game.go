package holdem

import (
	"fmt"

	"github.com/google/uuid"

	"holdem-live/card"
)

// StartHand moves busted players to the waiting list, posts blinds, deals
// hole cards and hands the first turn out.
func (t *Table) StartHand() error {
	if t.HandActive() {
		return Validationf(msgHandInProgress)
	}

	holeCards := t.Config.GameType.HoleCardCount()
	for i := 0; i < len(t.Seated); {
		p := t.Seated[i]
		if p.Chips > 0 {
			i++
			continue
		}
		t.removeSeatedAt(i)
		p.Seat = NoSeat
		p.resetForNewHand(holeCards)
		t.Waiting = append(t.Waiting, p)
		t.emit(NotifyPlayerMovedToWaiting, "", PlayerMoved{PlayerID: p.ID, Reason: "out of chips"})
	}
	if len(t.Seated) < 2 {
		return Validationf(msgNotEnough)
	}

	t.Status = StatusPlaying
	t.Round = RoundPreflop
	t.HandOver = false
	t.LastResult = nil
	t.HandNumber++
	t.HandID = uuid.NewString()
	t.Pot = 0
	t.DeadCommitments = nil
	t.CurrentBet = 0
	t.CommunityCards = card.CardList{}
	t.Deck = card.NewDeck(t.rng)
	for _, p := range t.Seated {
		p.resetForNewHand(holeCards)
		p.InHand = true
		p.HoleCards = make(card.CardList, 0, holeCards)
	}

	n := len(t.Seated)
	d := t.dealerIndex()
	t.DealerSeat = t.Seated[d].Seat
	sb := (d + 1) % n
	bb := (d + 2) % n
	if n == 2 {
		// Heads-Up: 庄家即小盲, 翻牌前先行动
		sb, bb = d, (d+1)%n
	}

	sbPosted := t.Seated[sb].placeBet(t.Config.SmallBlind)
	bbPosted := t.Seated[bb].placeBet(t.Config.BigBlind)
	t.Pot += sbPosted + bbPosted
	t.CurrentBet = max(sbPosted, bbPosted)

	if err := t.dealHoleCards(sb, holeCards); err != nil {
		return err
	}

	t.emit(NotifyGameStarted, "", GameStarted{
		HandID:         t.HandID,
		HandNumber:     t.HandNumber,
		DealerSeat:     t.DealerSeat,
		SmallBlindSeat: t.Seated[sb].Seat,
		BigBlindSeat:   t.Seated[bb].Seat,
		SmallBlind:     sbPosted,
		BigBlind:       bbPosted,
	})
	for _, p := range t.Seated {
		t.emit(NotifyDealCards, p.ID, DealCards{PlayerID: p.ID, Cards: p.HoleCards.Clone()})
	}
	t.emitTableUpdate()

	return t.progress((bb + 1) % n)
}

// dealerIndex is the first seated player at or after the button seat.
func (t *Table) dealerIndex() int {
	if t.DealerSeat == NoSeat {
		return 0
	}
	for i, p := range t.Seated {
		if p.Seat >= t.DealerSeat {
			return i
		}
	}
	return 0
}

// dealHoleCards 从小盲开始一张一张发
func (t *Table) dealHoleCards(from, count int) error {
	n := len(t.Seated)
	for round := 0; round < count; round++ {
		for k := 0; k < n; k++ {
			p := t.Seated[(from+k)%n]
			if t.Deck.Count() == 0 {
				return Internal("deal", fmt.Errorf("deck underflow"))
			}
			p.HoleCards.Add(t.Deck.PopCard())
		}
	}
	return nil
}

// dealStreet burns one card then turns the street over.
func (t *Table) dealStreet(count int) error {
	if t.Deck.Count() == 0 {
		return Internal("burn", fmt.Errorf("deck underflow"))
	}
	t.Deck.PopCard()
	cards, ok := t.Deck.PopCards(count)
	if !ok {
		return Internal("deal", fmt.Errorf("deck underflow"))
	}
	t.CommunityCards = append(t.CommunityCards, cards...)
	return nil
}

// runOutBoard deals the remaining streets when betting is over before the river.
func (t *Table) runOutBoard() error {
	for len(t.CommunityCards) < 5 {
		count := 1
		if len(t.CommunityCards) == 0 {
			count = 3
		}
		if err := t.dealStreet(count); err != nil {
			return err
		}
	}
	return nil
}

// NextHand runs after the result display delay: it clears the finished
// hand, moves the button and either deals again or ends the game.
func (t *Table) NextHand(handNumber int) error {
	if t.Status != StatusPlaying || !t.HandOver || t.HandNumber != handNumber {
		return ErrStaleTimer
	}
	holeCards := t.Config.GameType.HoleCardCount()
	for _, p := range t.Seated {
		p.resetForNewHand(holeCards)
	}
	t.Pot = 0
	t.DeadCommitments = nil
	t.CurrentBet = 0
	t.CommunityCards = card.CardList{}
	t.HandOver = false
	t.Status = StatusWaiting
	t.rotateDealer()

	if t.fundedSeatedCount() >= 2 {
		return t.StartHand()
	}
	t.endGame("not enough players")
	return nil
}

// rotateDealer moves the button to the next occupied seat.
func (t *Table) rotateDealer() {
	if len(t.Seated) == 0 {
		t.DealerSeat = NoSeat
		return
	}
	for _, p := range t.Seated {
		if p.Seat > t.DealerSeat {
			t.DealerSeat = p.Seat
			return
		}
	}
	t.DealerSeat = t.Seated[0].Seat
}

func (t *Table) endGame(reason string) {
	t.Status = StatusWaiting
	t.Round = RoundPreflop
	t.HandOver = false
	t.CurrentPlayerIndex = 0
	t.TurnSeq++
	t.emit(NotifyGameEnded, "", GameEnded{Reason: reason})
	t.emitTableUpdate()
}
