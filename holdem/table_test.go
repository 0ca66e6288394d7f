package holdem

import (
	"bytes"
	"testing"

	"holdem-live/card"
)

func newEmptyTable(t *testing.T, cfg Config) *Table {
	t.Helper()
	tb, err := NewTable("t1", cfg, newFakeEval())
	if err != nil {
		t.Fatalf("NewTable err: %v", err)
	}
	return tb
}

func TestNewTable_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BigBlind = 0
	if _, err := NewTable("t1", cfg, nil); err == nil {
		t.Fatalf("expected config error")
	}
	cfg = testConfig()
	cfg.GameType = GameTypeOmaha
	cfg.MaxPlayers = 12
	if _, err := NewTable("t1", cfg, nil); err == nil {
		t.Fatalf("12 omaha players cannot be dealt from one deck")
	}
}

func TestJoinSeat_BuyInAndAutoStart(t *testing.T) {
	tb := newEmptyTable(t, testConfig())

	for _, id := range []string{"alice", "bob"} {
		if err := tb.JoinTable(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := tb.JoinSeat("alice", 2, 0); err != nil {
		t.Fatal(err)
	}
	fx := tb.DrainEffects()
	if len(fx.Transfers) != 1 || fx.Transfers[0].Amount != -100 {
		t.Fatalf("expected a 100 chip buy-in debit, got %+v", fx.Transfers)
	}
	if tb.Status != StatusWaiting {
		t.Fatalf("one player must not start a hand")
	}

	if err := tb.JoinSeat("bob", 0, 250); err != nil {
		t.Fatal(err)
	}
	if tb.Status != StatusPlaying || tb.HandNumber != 1 {
		t.Fatalf("second seated player should start the hand")
	}
	if tb.Seated[0].ID != "bob" || tb.Seated[1].ID != "alice" {
		t.Fatalf("seated list must be ordered by seat")
	}
	fx = tb.DrainEffects()
	if !hasKind(fx, NotifyGameStarted) || !hasKind(fx, NotifyPlayerTurn) {
		t.Fatalf("expected gameStarted and playerTurn")
	}
	dealt := 0
	for _, n := range fx.Notifications {
		if n.Kind == NotifyDealCards {
			dealt++
			if n.To == "" || n.To != n.Payload.(DealCards).PlayerID {
				t.Fatalf("hole cards must be routed to their owner only")
			}
		}
	}
	if dealt != 2 {
		t.Fatalf("expected 2 dealCards, got %d", dealt)
	}
}

func TestJoinSeat_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	tb := newEmptyTable(t, cfg)
	for _, id := range []string{"a", "b"} {
		if err := tb.JoinTable(id); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		name  string
		id    string
		seat  int
		chips int64
	}{
		{"below buy-in", "a", 0, 50},
		{"seat out of range", "a", 2, 0},
		{"negative seat", "a", -1, 0},
		{"not joined", "zed", 0, 0},
	}
	for _, tc := range cases {
		if err := tb.JoinSeat(tc.id, tc.seat, tc.chips); !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if err := tb.JoinSeat("a", 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tb.JoinSeat("b", 0, 0); !IsValidation(err) {
		t.Fatalf("seat taken: expected validation, got %v", err)
	}
	if err := tb.JoinSeat("a", 1, 0); !IsValidation(err) {
		t.Fatalf("already seated: expected validation, got %v", err)
	}
}

func TestJoinTable_FullAndIdempotent(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000, 1000, 1000, 1000, 1000)

	if err := tb.JoinTable("late"); !IsValidation(err) {
		t.Fatalf("expected table full, got %v", err)
	}
	// button 0, blinds 1 and 2, p3 is under the gun
	if err := tb.JoinTable("p3"); err != nil {
		t.Fatalf("rejoin should be a resync, got %v", err)
	}
	fx := tb.DrainEffects()
	for _, n := range fx.Notifications {
		if n.To != "p3" {
			t.Fatalf("resync must only target the rejoining player, got %s to %q", n.Kind, n.To)
		}
	}
	if !hasKind(fx, NotifyDealCards) || !hasKind(fx, NotifyPlayerTurn) {
		t.Fatalf("resync of the current actor should resend cards and turn")
	}
}

func TestLeaveSeat_MidHandFoldsAndCashesOut(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000, 1000)
	mustAct(t, tb, "p0", PlayerActionTypeRaise, 40)

	// p2 is not the actor; their big blind stays in the pot as dead money
	if err := tb.LeaveSeat("p2"); err != nil {
		t.Fatal(err)
	}
	if tb.seatedIndex("p2") >= 0 || tb.waitingIndex("p2") < 0 {
		t.Fatalf("p2 should be waiting")
	}
	if len(tb.DeadCommitments) != 1 || tb.DeadCommitments[0] != 10 || tb.Pot != 55 {
		t.Fatalf("dead=%v pot=%d", tb.DeadCommitments, tb.Pot)
	}
	if got := currentID(t, tb); got != "p1" {
		t.Fatalf("actor should still be p1, got %s", got)
	}
	fx := tb.DrainEffects()
	if len(fx.Transfers) != 1 || fx.Transfers[0].Amount != 990 {
		t.Fatalf("expected 990 cash-out, got %+v", fx.Transfers)
	}

	// current actor leaves, hand folds out to p0
	if err := tb.LeaveSeat("p1"); err != nil {
		t.Fatal(err)
	}
	if !tb.HandOver {
		t.Fatalf("hand should be over")
	}
	if tb.Seated[0].Chips != 960+55 {
		t.Fatalf("p0 chips %d", tb.Seated[0].Chips)
	}
	if got := chipsOnTable(tb) + 990 + 995; got != 3000 {
		t.Fatalf("chips not conserved: %d", got)
	}
}

func TestLeaveTable_RemovesPlayer(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000)

	if err := tb.LeaveTable("p0"); err != nil {
		t.Fatal(err)
	}
	if tb.findPlayer("p0") != nil {
		t.Fatalf("p0 still at table")
	}
	if err := tb.LeaveTable("p0"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !tb.HandOver || tb.Seated[0].Chips != 1005 {
		t.Fatalf("remaining player should win the blinds")
	}
}

func TestAddChips(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000)

	if err := tb.AddChips("p0", 100); !IsValidation(err) {
		t.Fatalf("adding during a hand must be rejected, got %v", err)
	}
	if err := tb.AddChips("p0", -5); !IsValidation(err) {
		t.Fatalf("negative amount must be rejected, got %v", err)
	}
	mustAct(t, tb, "p0", PlayerActionTypeFold, 0)
	tb.DrainEffects()

	if err := tb.AddChips("p0", 100); err != nil {
		t.Fatal(err)
	}
	if tb.Seated[0].Chips != 1095 {
		t.Fatalf("chips %d", tb.Seated[0].Chips)
	}
	fx := tb.DrainEffects()
	if len(fx.Transfers) != 1 || fx.Transfers[0].Amount != -100 {
		t.Fatalf("transfers %+v", fx.Transfers)
	}
	if err := tb.AddChips("ghost", 100); !IsValidation(err) {
		t.Fatalf("unseated player: expected validation, got %v", err)
	}
}

func TestSnapshot_MasksOtherHoleCards(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000)

	pub := tb.Snapshot()
	for _, p := range pub.SeatedPlayers {
		for _, c := range p.HoleCards {
			if c != card.CardRear {
				t.Fatalf("public snapshot leaked %s", c)
			}
		}
	}
	mine := tb.SnapshotFor("p1")
	if !mine.SeatedPlayers[1].HoleCards[0].Valid() {
		t.Fatalf("player should see their own cards")
	}
	if mine.SeatedPlayers[0].HoleCards[0] != card.CardRear {
		t.Fatalf("player must not see opponent cards")
	}
	if mine.CurrentPlayerID != "p0" {
		t.Fatalf("current player %q", mine.CurrentPlayerID)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	tb, _ := setup(t, testConfig(), 1000, 1000)
	cp := tb.Clone()

	mustAct(t, cp, "p0", PlayerActionTypeCall, 0)
	if tb.Seated[0].Chips != 995 || tb.Pot != 15 || tb.Seated[0].HasActed {
		t.Fatalf("mutating the clone changed the original")
	}
	if cp.Pot != 20 {
		t.Fatalf("clone pot %d", cp.Pot)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	tb, ev := setup(t, testConfig(), 1000, 1000, 1000)
	mustAct(t, tb, "p0", PlayerActionTypeCall, 0)

	data, err := tb.MarshalState()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Restore(data, ev)
	if err != nil {
		t.Fatal(err)
	}
	again, err := back.MarshalState()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("state changed across restore:\n%s\n%s", data, again)
	}
	k1, _ := tb.CurrentTurn()
	k2, _ := back.CurrentTurn()
	if k1 != k2 {
		t.Fatalf("turn key %+v != %+v", k1, k2)
	}
	mustAct(t, back, "p1", PlayerActionTypeCall, 0)
}

// shortStackVersusLeaver: p0 (50) is all-in, p1 raised to 200 and p2 called.
func shortStackVersusLeaver(t *testing.T) (*Table, *fakeEval) {
	t.Helper()
	tb, ev := setup(t, testConfig(), 50, 1000, 1000)
	mustAct(t, tb, "p0", PlayerActionTypeAllin, 0)
	mustAct(t, tb, "p1", PlayerActionTypeRaise, 200)
	mustAct(t, tb, "p2", PlayerActionTypeCall, 0)
	if tb.Round != RoundFlop {
		t.Fatalf("expected flop, got %s", tb.Round)
	}
	ev.set(tb, "p0", 300)
	ev.set(tb, "p1", 100)
	ev.set(tb, "p2", 200)
	return tb, ev
}

func assertShortStackOnlyWinsMainPot(t *testing.T, tb *Table) {
	t.Helper()
	if !tb.HandOver {
		t.Fatalf("hand should be settled")
	}
	p0, _ := tb.Player("p0")
	p1, _ := tb.Player("p1")
	if p0.Chips != 150 {
		t.Fatalf("short stack won %d, want the 150 main pot only", p0.Chips)
	}
	if p1.Chips != 800+300 {
		t.Fatalf("p1 chips %d, want the 300 side pot back", p1.Chips)
	}
	res := tb.LastResult
	if len(res.Pots) != 2 || res.Pots[0].Amount != 150 || res.Pots[1].Amount != 300 {
		t.Fatalf("pots %+v", res.Pots)
	}
	if len(res.Pots[1].Eligible) != 1 || res.Pots[1].Eligible[0] != "p1" {
		t.Fatalf("side pot eligible %v", res.Pots[1].Eligible)
	}
}

func TestLeaveSeat_CommittedChipsStayInTheirPotLevel(t *testing.T) {
	tb, _ := shortStackVersusLeaver(t)

	if err := tb.LeaveSeat("p2"); err != nil {
		t.Fatal(err)
	}
	if len(tb.DeadCommitments) != 1 || tb.DeadCommitments[0] != 200 {
		t.Fatalf("dead commitments %v", tb.DeadCommitments)
	}
	mustAct(t, tb, "p1", PlayerActionTypeCheck, 0)
	assertShortStackOnlyWinsMainPot(t, tb)
}

func TestEviction_CommittedChipsStayInTheirPotLevel(t *testing.T) {
	tb, _ := shortStackVersusLeaver(t)

	mustAct(t, tb, "p1", PlayerActionTypeCheck, 0)
	tb.Seated[2].ConsecutiveAfkRounds = MaxAfkRounds - 1
	key, ok := tb.CurrentTurn()
	if !ok || key.PlayerID != "p2" {
		t.Fatalf("expected p2 on turn, got %+v", key)
	}
	// the forced check closes the flop, then p2 is evicted on the turn
	if err := tb.Timeout(key); err != nil {
		t.Fatal(err)
	}
	if tb.seatedIndex("p2") >= 0 {
		t.Fatalf("p2 should be evicted")
	}
	if len(tb.DeadCommitments) != 1 || tb.DeadCommitments[0] != 200 {
		t.Fatalf("dead commitments %v", tb.DeadCommitments)
	}
	mustAct(t, tb, "p1", PlayerActionTypeCheck, 0)
	assertShortStackOnlyWinsMainPot(t, tb)
}
