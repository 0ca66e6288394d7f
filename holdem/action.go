package holdem

// Act validates and applies a voluntary action by the current actor.
// For a raise, amount is the player's total bet for the round.
func (t *Table) Act(playerID string, action ActionType, amount int64) error {
	if !t.HandActive() {
		return Validationf(msgNotInProgress)
	}
	idx := t.seatedIndex(playerID)
	if idx < 0 {
		return Validationf(msgNotSeated)
	}
	if idx != t.CurrentPlayerIndex || !t.Seated[idx].InHand {
		return Validationf(msgNotYourTurn)
	}
	p := t.Seated[idx]
	if err := t.validate(p, action, amount); err != nil {
		return err
	}
	p.ConsecutiveAfkRounds = 0
	return t.applyAction(idx, action, amount, false)
}

// validate 纯校验, 不修改任何状态
func (t *Table) validate(p *Player, action ActionType, amount int64) error {
	switch action {
	case PlayerActionTypeFold:
	case PlayerActionTypeCheck:
		if p.CurrentBet != t.CurrentBet {
			return Validationf(msgCannotCheck)
		}
	case PlayerActionTypeCall:
		if p.Chips < t.CurrentBet-p.CurrentBet {
			return Validationf(msgCannotCall)
		}
	case PlayerActionTypeRaise:
		if amount <= t.CurrentBet {
			return Validationf(msgRaiseTooSmall)
		}
		if t.CurrentBet == 0 && amount < t.Config.MinimumBet {
			return Validationf(msgBelowMinimumBet, t.Config.MinimumBet)
		}
		if p.Chips < amount-p.CurrentBet {
			return Validationf(msgCannotRaise)
		}
	case PlayerActionTypeAllin:
		if p.Chips <= 0 {
			return Validationf(msgNoChipsAllin)
		}
	default:
		return Validationf("Unknown action: %s", action)
	}
	return nil
}

// applyAction mutates chips and flags for an already validated action and
// moves the hand forward. auto marks timer-driven actions.
func (t *Table) applyAction(idx int, action ActionType, amount int64, auto bool) error {
	p := t.Seated[idx]
	switch action {
	case PlayerActionTypeFold:
		p.fold()
	case PlayerActionTypeCheck:
	case PlayerActionTypeCall:
		t.Pot += p.placeBet(t.CurrentBet - p.CurrentBet)
	case PlayerActionTypeRaise:
		t.Pot += p.placeBet(amount - p.CurrentBet)
		t.raiseTo(idx, p.CurrentBet)
	case PlayerActionTypeAllin:
		t.Pot += p.placeBet(p.Chips)
		if p.CurrentBet > t.CurrentBet {
			t.raiseTo(idx, p.CurrentBet)
		}
	}
	p.HasActed = true
	p.LastAction = action

	t.emit(NotifyPlayerAction, "", PlayerAction{
		PlayerID:   p.ID,
		Seat:       p.Seat,
		Action:     action,
		CurrentBet: p.CurrentBet,
		Chips:      p.Chips,
		Pot:        t.Pot,
		Auto:       auto,
	})
	t.emitTableUpdate()

	return t.progress((idx + 1) % len(t.Seated))
}

// raiseTo sets a new table bet and reopens action for everyone else.
func (t *Table) raiseTo(idx int, bet int64) {
	t.CurrentBet = bet
	for i, p := range t.Seated {
		if i != idx && p.InHand {
			p.HasActed = false
		}
	}
}
