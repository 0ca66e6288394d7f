package holdem

import (
	"errors"
	"fmt"
	"testing"

	"holdem-live/card"
)

// fakeEval scores a hand by its first hole card, or with score when set.
type fakeEval struct {
	byCard map[card.Card]HandRank
	score  func(hole []card.Card) int32
	err    error
	calls  int
}

func newFakeEval() *fakeEval {
	return &fakeEval{byCard: make(map[card.Card]HandRank)}
}

func (f *fakeEval) Rank(_ GameType, hole, board []card.Card) (HandRank, error) {
	f.calls++
	if f.err != nil {
		return HandRank{}, f.err
	}
	if len(board) != 5 {
		return HandRank{}, fmt.Errorf("board has %d cards", len(board))
	}
	if f.score != nil {
		s := f.score(hole)
		return HandRank{Score: s, Description: fmt.Sprintf("score %d", s)}, nil
	}
	return f.byCard[hole[0]], nil
}

func (f *fakeEval) set(tb *Table, playerID string, score int32) {
	p := tb.findPlayer(playerID)
	f.byCard[p.HoleCards[0]] = HandRank{Score: score, Description: fmt.Sprintf("score %d", score)}
}

var errEvalCalled = errors.New("evaluator must not be called")

func testConfig() Config {
	return Config{
		MaxPlayers:   6,
		GameType:     GameTypeHoldem,
		BuyIn:        100,
		SmallBlind:   5,
		BigBlind:     10,
		MinimumBet:   10,
		TableFeeRate: 0,
		Seed:         1,
	}
}

// setup seats p0..pN at seats 0..N with the given stacks and starts a hand.
// The button starts on seat 0.
func setup(t *testing.T, cfg Config, chips ...int64) (*Table, *fakeEval) {
	t.Helper()
	ev := newFakeEval()
	tb, err := NewTable("t1", cfg, ev)
	if err != nil {
		t.Fatalf("NewTable err: %v", err)
	}
	for i, c := range chips {
		p := newPlayer(fmt.Sprintf("p%d", i))
		p.Seat = i
		p.Chips = c
		p.emptyHand(cfg.GameType.HoleCardCount())
		tb.Seated = append(tb.Seated, p)
	}
	if err := tb.StartHand(); err != nil {
		t.Fatalf("StartHand err: %v", err)
	}
	tb.DrainEffects()
	return tb, ev
}

func mustAct(t *testing.T, tb *Table, playerID string, action ActionType, amount int64) {
	t.Helper()
	if err := tb.Act(playerID, action, amount); err != nil {
		t.Fatalf("%s %s %d: %v", playerID, action, amount, err)
	}
}

func currentID(t *testing.T, tb *Table) string {
	t.Helper()
	turn, ok := tb.CurrentTurn()
	if !ok {
		t.Fatalf("no current turn")
	}
	return turn.PlayerID
}

func chipsOnTable(tb *Table) int64 {
	sum := tb.Pot + tb.TableEarnings
	for _, p := range tb.Seated {
		sum += p.Chips
	}
	for _, p := range tb.Waiting {
		sum += p.Chips
	}
	return sum
}

func hasKind(effects Effects, kind NotificationKind) bool {
	for _, n := range effects.Notifications {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
