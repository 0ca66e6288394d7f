package holdem

import (
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"holdem-live/card"
)

// Table is the authoritative state of one table. It is not safe for
// concurrent use; the table runtime serializes every call.
type Table struct {
	ID     string `json:"id"`
	Config Config `json:"config"`

	Status Status `json:"status"`
	Round  Round  `json:"round"`

	// Seated is ordered by seat number. Waiting holds joined, unseated players.
	Seated  []*Player `json:"seated"`
	Waiting []*Player `json:"waiting"`

	DealerSeat         int   `json:"dealerSeat"`
	CurrentPlayerIndex int   `json:"currentPlayerIndex"`
	CurrentBet         int64 `json:"currentBet"`
	Pot                int64 `json:"pot"`
	// DeadCommitments holds what players who left mid-hand had committed.
	// They are layered into the pots like folded players, never eligible.
	DeadCommitments []int64 `json:"deadCommitments,omitempty"`

	CommunityCards card.CardList `json:"communityCards"`
	Deck           card.CardList `json:"deck"`

	TableEarnings int64 `json:"tableEarnings"`

	HandNumber int    `json:"handNumber"`
	HandID     string `json:"handId"`
	// HandOver is set between a hand result and the next hand.
	HandOver bool `json:"handOver"`
	// TurnSeq changes every time a new turn is handed out.
	TurnSeq    uint64      `json:"turnSeq"`
	LastResult *HandResult `json:"lastResult,omitempty"`

	rng    *rand.Rand
	eval   HandEvaluator
	outbox Effects
}

// NewTable creates an empty waiting table.
func NewTable(id string, cfg Config, eval HandEvaluator) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		ID:         id,
		Config:     cfg,
		Status:     StatusWaiting,
		Round:      RoundPreflop,
		DealerSeat: NoSeat,
		Seated:     make([]*Player, 0, cfg.MaxPlayers),
		Waiting:    make([]*Player, 0),
	}
	t.attach(eval)
	return t, nil
}

// Restore rebuilds a table from MarshalState output.
func Restore(data []byte, eval HandEvaluator) (*Table, error) {
	t := &Table{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	if err := t.Config.Validate(); err != nil {
		return nil, err
	}
	if t.Seated == nil {
		t.Seated = make([]*Player, 0, t.Config.MaxPlayers)
	}
	t.attach(eval)
	return t, nil
}

func (t *Table) attach(eval HandEvaluator) {
	seed := t.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t.rng = rand.New(rand.NewSource(seed))
	t.eval = eval
}

// MarshalState encodes the full table, hole cards and deck included, for
// persistence. Never send it to clients.
func (t *Table) MarshalState() ([]byte, error) {
	return json.Marshal(t)
}

// Clone returns a deep copy sharing the RNG and evaluator. Mutations are
// applied to a clone and swapped in once committed.
func (t *Table) Clone() *Table {
	cp := *t
	cp.Seated = make([]*Player, len(t.Seated), cap(t.Seated))
	for i, p := range t.Seated {
		cp.Seated[i] = p.clone()
	}
	cp.Waiting = make([]*Player, len(t.Waiting))
	for i, p := range t.Waiting {
		cp.Waiting[i] = p.clone()
	}
	cp.DeadCommitments = append([]int64(nil), t.DeadCommitments...)
	cp.CommunityCards = t.CommunityCards.Clone()
	cp.Deck = t.Deck.Clone()
	cp.outbox = Effects{}
	return &cp
}

// HandActive reports whether betting is in progress.
func (t *Table) HandActive() bool {
	return t.Status == StatusPlaying && !t.HandOver
}

func (t *Table) seatedIndex(playerID string) int {
	for i, p := range t.Seated {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (t *Table) waitingIndex(playerID string) int {
	for i, p := range t.Waiting {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (t *Table) findPlayer(playerID string) *Player {
	if i := t.seatedIndex(playerID); i >= 0 {
		return t.Seated[i]
	}
	if i := t.waitingIndex(playerID); i >= 0 {
		return t.Waiting[i]
	}
	return nil
}

// Player returns a copy of the player's record.
func (t *Table) Player(playerID string) (Player, bool) {
	p := t.findPlayer(playerID)
	if p == nil {
		return Player{}, false
	}
	return *p.clone(), true
}

// MemberIDs lists every joined player, seated first.
func (t *Table) MemberIDs() []string {
	ids := make([]string, 0, len(t.Seated)+len(t.Waiting))
	for _, p := range t.Seated {
		ids = append(ids, p.ID)
	}
	for _, p := range t.Waiting {
		ids = append(ids, p.ID)
	}
	return ids
}

func (t *Table) seatTaken(seat int) bool {
	for _, p := range t.Seated {
		if p.Seat == seat {
			return true
		}
	}
	return false
}

func (t *Table) fundedSeatedCount() int {
	n := 0
	for _, p := range t.Seated {
		if p.Chips > 0 {
			n++
		}
	}
	return n
}

func (t *Table) insertSeated(p *Player) {
	idx := sort.Search(len(t.Seated), func(i int) bool { return t.Seated[i].Seat > p.Seat })
	t.Seated = append(t.Seated, nil)
	copy(t.Seated[idx+1:], t.Seated[idx:])
	t.Seated[idx] = p
	if t.Status == StatusPlaying && idx <= t.CurrentPlayerIndex && len(t.Seated) > 1 {
		t.CurrentPlayerIndex++
	}
}

func (t *Table) removeSeatedAt(idx int) *Player {
	p := t.Seated[idx]
	t.Seated = append(t.Seated[:idx], t.Seated[idx+1:]...)
	if idx < t.CurrentPlayerIndex {
		t.CurrentPlayerIndex--
	}
	if t.CurrentPlayerIndex >= len(t.Seated) {
		t.CurrentPlayerIndex = 0
	}
	return p
}

// JoinTable adds the player to the waiting list. Joining twice is a no-op
// that re-sends the table state to the player.
func (t *Table) JoinTable(playerID string) error {
	if p := t.findPlayer(playerID); p != nil {
		p.Connected = true
		t.Resync(playerID)
		return nil
	}
	if len(t.Seated) >= t.Config.MaxPlayers {
		return Validationf(msgTableFull)
	}
	p := newPlayer(playerID)
	p.emptyHand(t.Config.GameType.HoleCardCount())
	t.Waiting = append(t.Waiting, p)

	t.emit(NotifyPlayerJoined, "", PlayerJoined{PlayerID: playerID, Seat: NoSeat})
	t.emitTableUpdate()
	return nil
}

// JoinSeat seats a waiting player with chips bought in from their balance.
// chips <= 0 means the table buy-in. The first hand starts as soon as two
// funded players are seated.
func (t *Table) JoinSeat(playerID string, seat int, chips int64) error {
	if t.seatedIndex(playerID) >= 0 {
		return Validationf(msgAlreadySeated)
	}
	wi := t.waitingIndex(playerID)
	if wi < 0 {
		return Validationf(msgNotAtTable)
	}
	if seat < 0 || seat >= t.Config.MaxPlayers {
		return Validationf(msgInvalidSeat)
	}
	if t.seatTaken(seat) {
		return Validationf(msgSeatTaken)
	}
	if chips <= 0 {
		chips = t.Config.BuyIn
	}
	if chips < t.Config.BuyIn {
		return Validationf("Chips must be at least %d", t.Config.BuyIn)
	}

	p := t.Waiting[wi]
	t.Waiting = append(t.Waiting[:wi], t.Waiting[wi+1:]...)
	p.Seat = seat
	p.Chips += chips
	p.ConsecutiveAfkRounds = 0
	p.resetForNewHand(t.Config.GameType.HoleCardCount())
	t.insertSeated(p)
	t.transfer(playerID, -chips, "buy-in")

	t.emit(NotifyPlayerJoined, "", PlayerJoined{PlayerID: playerID, Seat: seat, Chips: p.Chips})
	t.emitTableUpdate()
	return t.maybeStart()
}

// LeaveSeat returns the player to the waiting list and cashes out their
// chips. A player still in the hand folds first.
func (t *Table) LeaveSeat(playerID string) error {
	if t.seatedIndex(playerID) < 0 {
		if t.waitingIndex(playerID) >= 0 {
			return Validationf(msgNotSeated)
		}
		return ErrPlayerNotFound(playerID)
	}
	seat, cashOut, err := t.unseat(playerID)
	if err != nil {
		return err
	}
	t.emit(NotifyPlayerLeft, "", PlayerLeft{PlayerID: playerID, Seat: seat, CashOut: cashOut})
	t.emitTableUpdate()
	return nil
}

// LeaveTable removes the player entirely, cashing out if seated.
func (t *Table) LeaveTable(playerID string) error {
	if t.findPlayer(playerID) == nil {
		return ErrPlayerNotFound(playerID)
	}
	seat, cashOut := NoSeat, int64(0)
	if t.seatedIndex(playerID) >= 0 {
		var err error
		if seat, cashOut, err = t.unseat(playerID); err != nil {
			return err
		}
	}
	wi := t.waitingIndex(playerID)
	t.Waiting = append(t.Waiting[:wi], t.Waiting[wi+1:]...)

	t.emit(NotifyPlayerLeft, "", PlayerLeft{PlayerID: playerID, Seat: seat, CashOut: cashOut})
	t.emitTableUpdate()
	return nil
}

// unseat folds the player out of a live hand, frees the seat and credits
// the remaining stack back to the balance. Chips already committed to a
// live pot stay there as dead money.
func (t *Table) unseat(playerID string) (seat int, cashOut int64, err error) {
	idx := t.seatedIndex(playerID)
	p := t.Seated[idx]
	if t.HandActive() && p.InHand {
		if idx == t.CurrentPlayerIndex {
			err = t.applyAction(idx, PlayerActionTypeFold, 0, false)
		} else {
			p.fold()
			p.HasActed = true
			t.emit(NotifyPlayerAction, "", PlayerAction{
				PlayerID: p.ID, Seat: p.Seat, Action: PlayerActionTypeFold,
				CurrentBet: p.CurrentBet, Chips: p.Chips, Pot: t.Pot,
			})
			if t.inHandCount() <= 1 {
				err = t.endHand()
			}
		}
		if err != nil {
			return NoSeat, 0, err
		}
	}
	if t.HandActive() && p.Committed > 0 {
		t.DeadCommitments = append(t.DeadCommitments, p.Committed)
	}

	seat = p.Seat
	t.removeSeatedAt(t.seatedIndex(playerID))
	cashOut = p.Chips
	p.Chips = 0
	p.Seat = NoSeat
	p.resetForNewHand(t.Config.GameType.HoleCardCount())
	t.Waiting = append(t.Waiting, p)
	t.transfer(playerID, cashOut, "cash-out")
	return seat, cashOut, nil
}

// AddChips tops up a seated player's stack between hands.
func (t *Table) AddChips(playerID string, amount int64) error {
	if amount <= 0 {
		return Validationf(msgInvalidAmount)
	}
	idx := t.seatedIndex(playerID)
	if idx < 0 {
		return Validationf(msgMustBeSeated)
	}
	if t.HandActive() {
		return Validationf(msgAddDuringHand)
	}
	p := t.Seated[idx]
	p.Chips += amount
	t.transfer(playerID, -amount, "add-chips")

	t.emit(NotifyChipsAdded, "", ChipsAdded{PlayerID: playerID, Amount: amount, Chips: p.Chips})
	t.emitTableUpdate()
	return t.maybeStart()
}

// SetConnected records a transport connect or disconnect.
func (t *Table) SetConnected(playerID string, connected bool) error {
	p := t.findPlayer(playerID)
	if p == nil {
		return ErrPlayerNotFound(playerID)
	}
	p.Connected = connected
	if !connected {
		t.emit(NotifyPlayerDisconnected, "", PlayerDisconnected{PlayerID: playerID})
		return nil
	}
	t.Resync(playerID)
	return nil
}

// Resync re-sends the table, the player's own cards and a pending turn
// prompt to one player.
func (t *Table) Resync(playerID string) {
	t.emit(NotifyTableUpdate, playerID, nil)
	p := t.findPlayer(playerID)
	if p == nil || !t.HandActive() || !p.InHand {
		return
	}
	t.emit(NotifyDealCards, playerID, DealCards{PlayerID: playerID, Cards: p.HoleCards.Clone()})
	if turn, ok := t.CurrentTurn(); ok && turn.PlayerID == playerID {
		t.emit(NotifyPlayerTurn, playerID, t.turnPrompt(t.CurrentPlayerIndex))
	}
}

func (t *Table) maybeStart() error {
	if t.Status == StatusWaiting && t.fundedSeatedCount() >= 2 {
		return t.StartHand()
	}
	return nil
}
