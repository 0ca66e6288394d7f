package holdem

// TurnKey identifies one armed turn. A timeout carrying a key that no
// longer matches CurrentTurn is stale and ignored.
type TurnKey struct {
	HandNumber int
	Round      Round
	Seq        uint64
	PlayerID   string
}

// CurrentTurn returns the key of the turn awaiting an action, if any.
func (t *Table) CurrentTurn() (TurnKey, bool) {
	if !t.HandActive() || t.CurrentPlayerIndex < 0 || t.CurrentPlayerIndex >= len(t.Seated) {
		return TurnKey{}, false
	}
	p := t.Seated[t.CurrentPlayerIndex]
	if !p.CanAct() {
		return TurnKey{}, false
	}
	return TurnKey{HandNumber: t.HandNumber, Round: t.Round, Seq: t.TurnSeq, PlayerID: p.ID}, true
}

func (t *Table) inHandCount() int {
	n := 0
	for _, p := range t.Seated {
		if p.InHand {
			n++
		}
	}
	return n
}

// roundComplete requires every player who can still bet to have acted and
// to have matched the table bet. All-in players are never waited on.
func (t *Table) roundComplete() bool {
	actors := 0
	var last *Player
	pending := false
	for _, p := range t.Seated {
		if !p.CanAct() {
			continue
		}
		actors++
		last = p
		if !p.HasActed || p.CurrentBet < t.CurrentBet {
			pending = true
		}
	}
	switch actors {
	case 0:
		return true
	case 1:
		// nobody left to bet against
		return last.CurrentBet >= t.CurrentBet
	}
	return !pending
}

// nextActor finds the first player from index from (wrapping) who still
// owes a decision this round.
func (t *Table) nextActor(from int) (int, bool) {
	n := len(t.Seated)
	for k := 0; k < n; k++ {
		idx := (from + k) % n
		p := t.Seated[idx]
		if p.CanAct() && (!p.HasActed || p.CurrentBet < t.CurrentBet) {
			return idx, true
		}
	}
	return 0, false
}

// firstAfterButton is where post-flop action starts.
func (t *Table) firstAfterButton() int {
	for i, p := range t.Seated {
		if p.Seat > t.DealerSeat {
			return i
		}
	}
	return 0
}

// progress hands the turn out, advances streets or ends the hand, whichever
// the current state calls for.
func (t *Table) progress(from int) error {
	for {
		if t.inHandCount() <= 1 {
			return t.endHand()
		}
		if !t.roundComplete() {
			if idx, ok := t.nextActor(from); ok {
				t.setActor(idx)
				return nil
			}
		}
		if t.Round == RoundRiver {
			return t.endHand()
		}
		if err := t.advanceRound(); err != nil {
			return err
		}
		from = t.firstAfterButton()
	}
}

func (t *Table) setActor(idx int) {
	t.CurrentPlayerIndex = idx
	t.TurnSeq++
	t.emit(NotifyPlayerTurn, "", t.turnPrompt(idx))
}

func (t *Table) turnPrompt(idx int) PlayerTurn {
	p := t.Seated[idx]
	key, _ := t.CurrentTurn()
	return PlayerTurn{
		PlayerID:   p.ID,
		Seat:       p.Seat,
		Round:      t.Round,
		CurrentBet: t.CurrentBet,
		CallAmount: min(t.CurrentBet-p.CurrentBet, p.Chips),
		Pot:        t.Pot,
		Turn:       key,
	}
}

func (t *Table) advanceRound() error {
	for _, p := range t.Seated {
		p.CurrentBet = 0
		p.HasActed = false
	}
	t.CurrentBet = 0
	t.Round++

	count := 1
	if t.Round == RoundFlop {
		count = 3
	}
	if err := t.dealStreet(count); err != nil {
		return err
	}
	t.emit(NotifyRoundUpdate, "", RoundUpdate{
		Round:          t.Round,
		CommunityCards: t.CommunityCards.Clone(),
		Pot:            t.Pot,
	})
	t.emitTableUpdate()
	return nil
}

// endHand resolves the hand by fold-out or showdown.
func (t *Table) endHand() error {
	if t.inHandCount() <= 1 {
		return t.settleFoldOut()
	}
	t.Round = RoundShowdown
	if err := t.runOutBoard(); err != nil {
		return err
	}
	return t.settleShowdown()
}

// Timeout applies the forced action for an expired turn: check when the
// bet is matched, fold otherwise. Repeated timeouts evict the player.
func (t *Table) Timeout(key TurnKey) error {
	cur, ok := t.CurrentTurn()
	if !ok || cur != key {
		return ErrStaleTimer
	}
	idx := t.CurrentPlayerIndex
	p := t.Seated[idx]

	action := PlayerActionTypeFold
	if p.CurrentBet >= t.CurrentBet {
		action = PlayerActionTypeCheck
	}
	p.ConsecutiveAfkRounds++
	afk := p.ConsecutiveAfkRounds

	if err := t.applyAction(idx, action, 0, true); err != nil {
		return err
	}
	if afk >= MaxAfkRounds {
		return t.evict(key.PlayerID, "afk")
	}
	return nil
}

// evict frees the player's seat and cashes them out.
func (t *Table) evict(playerID, reason string) error {
	if t.seatedIndex(playerID) < 0 {
		return nil
	}
	seat, cashOut, err := t.unseat(playerID)
	if err != nil {
		return err
	}
	if p := t.findPlayer(playerID); p != nil {
		p.ConsecutiveAfkRounds = 0
	}
	t.emit(NotifyPlayerRemoved, "", PlayerRemoved{PlayerID: playerID, Seat: seat, Reason: reason, CashOut: cashOut})
	t.emitTableUpdate()
	return nil
}
