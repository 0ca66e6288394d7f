package holdem

import (
	"testing"

	"holdem-live/card"
)

func contributor(id string, seat int, committed int64, live bool) *Player {
	return &Player{ID: id, Seat: seat, Committed: committed, InHand: live}
}

func potIDs(sp sidePot) []string {
	ids := make([]string, len(sp.eligible))
	for i, p := range sp.eligible {
		ids[i] = p.ID
	}
	return ids
}

func TestBuildPots_TwoTier(t *testing.T) {
	players := []*Player{
		contributor("A", 0, 100, true),
		contributor("B", 1, 300, true),
		contributor("C", 2, 300, true),
	}
	pots := buildPots(players, nil)
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d", len(pots))
	}
	if pots[0].amount != 300 || len(pots[0].eligible) != 3 {
		t.Fatalf("main pot %d %v", pots[0].amount, potIDs(pots[0]))
	}
	if pots[1].amount != 400 || len(pots[1].eligible) != 2 {
		t.Fatalf("side pot %d %v", pots[1].amount, potIDs(pots[1]))
	}
	for _, p := range pots[1].eligible {
		if p.ID == "A" {
			t.Fatalf("short stack eligible for side pot")
		}
	}
}

func TestBuildPots_ThreeAllInLevelsAndFoldedChips(t *testing.T) {
	players := []*Player{
		contributor("A", 0, 50, true),
		contributor("B", 1, 150, true),
		contributor("C", 2, 300, true),
		contributor("D", 3, 300, true),
		contributor("F", 4, 400, false), // folded after over-betting
		contributor("G", 5, 20, false),
	}
	pots := buildPots(players, []int64{30})

	want := []struct {
		amount   int64
		eligible int
	}{
		// 50*5 + 20 + dead 30
		{300, 4},
		// 100 each from B, C, D and F
		{400, 3},
		// 150 each from C and D, plus F's 250 above the middle level
		{550, 2},
	}
	if len(pots) != len(want) {
		t.Fatalf("expected %d pots, got %d", len(want), len(pots))
	}
	var total int64
	for i, w := range want {
		if pots[i].amount != w.amount || len(pots[i].eligible) != w.eligible {
			t.Fatalf("pot %d: amount=%d eligible=%v", i, pots[i].amount, potIDs(pots[i]))
		}
		total += pots[i].amount
	}
	if total != 50+150+300+300+400+20+30 {
		t.Fatalf("pots total %d", total)
	}
}

func TestRakeOf_FloorsExactly(t *testing.T) {
	cases := []struct {
		amount int64
		rate   float64
		want   int64
	}{
		{150, 0.02, 3},
		{49, 0.02, 0},
		{100, 0.07, 7},
		{1000, 0.035, 35},
		{999, 0, 0},
		{0, 0.05, 0},
	}
	for _, tc := range cases {
		if got := rakeOf(tc.amount, tc.rate); got != tc.want {
			t.Fatalf("rakeOf(%d, %v) = %d, want %d", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestSplitPot_RemainderToFirstSeat(t *testing.T) {
	winners := []*Player{{ID: "x", Seat: 1}, {ID: "y", Seat: 4}, {ID: "z", Seat: 5}}
	shares := splitPot(101, winners)
	if shares[0] != 35 || shares[1] != 33 || shares[2] != 33 {
		t.Fatalf("shares %v", shares)
	}
}

// showdownTable builds a table at the river with the given commitments.
func showdownTable(t *testing.T, rate float64, players ...*Player) (*Table, *fakeEval) {
	t.Helper()
	cfg := testConfig()
	cfg.TableFeeRate = rate
	ev := newFakeEval()
	tb, err := NewTable("t1", cfg, ev)
	if err != nil {
		t.Fatal(err)
	}
	deck := card.StandardDeck()
	for i, p := range players {
		p.HoleCards = card.CardList{deck[2*i], deck[2*i+1]}
		tb.Pot += p.Committed
		tb.Seated = append(tb.Seated, p)
	}
	tb.CommunityCards = card.CardList(deck[40:45])
	tb.Status = StatusPlaying
	tb.Round = RoundShowdown
	tb.HandNumber = 1
	return tb, ev
}

func TestSettle_SidePotNeverReachesShortStack(t *testing.T) {
	a := contributor("A", 0, 100, true)
	b := contributor("B", 1, 300, true)
	c := contributor("C", 2, 300, true)
	b.Chips, c.Chips = 700, 700
	tb, ev := showdownTable(t, 0.02, a, b, c)
	// A beats C but loses to B
	ev.set(tb, "A", 200)
	ev.set(tb, "B", 300)
	ev.set(tb, "C", 100)

	if err := tb.settleShowdown(); err != nil {
		t.Fatal(err)
	}
	// main 300 - rake 6 goes to B, side 400 - rake 8 goes to B
	if a.Chips != 0 || b.Chips != 700+294+392 || c.Chips != 700 {
		t.Fatalf("chips A=%d B=%d C=%d", a.Chips, b.Chips, c.Chips)
	}
	if tb.TableEarnings != 14 {
		t.Fatalf("rake %d", tb.TableEarnings)
	}
}

func TestSettle_ShortStackWinsOnlyMainPot(t *testing.T) {
	a := contributor("A", 0, 100, true)
	b := contributor("B", 1, 300, true)
	c := contributor("C", 2, 300, true)
	b.Chips, c.Chips = 700, 700
	tb, ev := showdownTable(t, 0.02, a, b, c)
	ev.set(tb, "A", 300)
	ev.set(tb, "B", 100)
	ev.set(tb, "C", 200)

	if err := tb.settleShowdown(); err != nil {
		t.Fatal(err)
	}
	if a.Chips != 294 {
		t.Fatalf("A should win only the main pot net of rake, got %d", a.Chips)
	}
	if c.Chips != 700+392 || b.Chips != 700 {
		t.Fatalf("side pot went to the wrong player: B=%d C=%d", b.Chips, c.Chips)
	}
	if sum := a.Chips + b.Chips + c.Chips + tb.TableEarnings; sum != 2100 {
		t.Fatalf("chips not conserved: %d", sum)
	}
	res := tb.LastResult
	if res == nil || len(res.Pots) != 2 || len(res.Winners) != 2 || res.Rake != 14 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Winners[0].PlayerID != "A" || res.Winners[0].HandDescription != "score 300" {
		t.Fatalf("winners %+v", res.Winners)
	}
}

func TestSettle_ThreeTiersPayEachLevel(t *testing.T) {
	a := contributor("A", 0, 50, true)
	b := contributor("B", 1, 150, true)
	c := contributor("C", 2, 300, true)
	d := contributor("D", 3, 300, true)
	tb, ev := showdownTable(t, 0, a, b, c, d)
	ev.set(tb, "A", 400)
	ev.set(tb, "B", 300)
	ev.set(tb, "C", 200)
	ev.set(tb, "D", 100)

	if err := tb.settleShowdown(); err != nil {
		t.Fatal(err)
	}
	if a.Chips != 200 || b.Chips != 300 || c.Chips != 300 || d.Chips != 0 {
		t.Fatalf("chips A=%d B=%d C=%d D=%d", a.Chips, b.Chips, c.Chips, d.Chips)
	}
}

func TestSettle_TieSplitsWithRemainderToFirstSeat(t *testing.T) {
	a := contributor("A", 2, 51, true)
	b := contributor("B", 5, 50, true)
	f := contributor("F", 3, 0, false)
	tb, ev := showdownTable(t, 0, a, f, b)
	ev.set(tb, "A", 100)
	ev.set(tb, "B", 100)

	if err := tb.settleShowdown(); err != nil {
		t.Fatal(err)
	}
	// main 100 split 50/50, A's extra chip comes back as its own pot
	if a.Chips != 51 || b.Chips != 50 {
		t.Fatalf("chips A=%d B=%d", a.Chips, b.Chips)
	}

	a2 := contributor("A", 2, 50, true)
	b2 := contributor("B", 5, 50, true)
	c2 := contributor("C", 7, 1, false)
	tb2, ev2 := showdownTable(t, 0, a2, b2, c2)
	ev2.set(tb2, "A", 100)
	ev2.set(tb2, "B", 100)
	if err := tb2.settleShowdown(); err != nil {
		t.Fatal(err)
	}
	// 101 split two ways, odd chip to seat 2
	if a2.Chips != 51 || b2.Chips != 50 {
		t.Fatalf("chips A=%d B=%d", a2.Chips, b2.Chips)
	}
}

func TestBuildPots_DeadCommitmentsLayeredByLevel(t *testing.T) {
	players := []*Player{
		contributor("A", 0, 50, true),
		contributor("B", 1, 200, true),
	}
	// a player who left after committing 200
	pots := buildPots(players, []int64{200})
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d", len(pots))
	}
	if pots[0].amount != 150 || len(pots[0].eligible) != 2 {
		t.Fatalf("main pot %d %v", pots[0].amount, potIDs(pots[0]))
	}
	if pots[1].amount != 300 || len(pots[1].eligible) != 1 || pots[1].eligible[0].ID != "B" {
		t.Fatalf("side pot %d %v", pots[1].amount, potIDs(pots[1]))
	}
}
