package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/store"
	"holdem-live/holdem"
)

// Table runs one holdem.Table as an actor. Every request goes through the
// events channel and is applied by the run goroutine, one at a time.
type Table struct {
	ID string

	mu       sync.RWMutex
	state    *holdem.Table
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	clock  quartz.Clock
	logger *log.Logger
	ledger ledger.Service
	store  store.SnapshotStore
	send   Sender
	opts   Options

	// Owned by the actor goroutine.
	timer    *quartz.Timer
	timerSeq uint64
	armed    timerTarget
	armedAt  time.Time

	// Optional callbacks invoked after each hand settles.
	hookMu       sync.Mutex
	handEndHooks []HandEndHook
}

// Message is one outbound notification. Its JSON form is the wire envelope.
type Message struct {
	Type    string `json:"type"`
	TableID string `json:"tableId,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Sender delivers a message to one connected player. It must not block.
type Sender func(playerID string, msg Message)

type Options struct {
	TurnTimeout       time.Duration
	HandEndDelay      time.Duration
	TimeoutRetryDelay time.Duration
	PersistTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = holdem.TurnTimeout
	}
	if o.HandEndDelay <= 0 {
		o.HandEndDelay = holdem.HandResultDisplay
	}
	if o.TimeoutRetryDelay <= 0 {
		o.TimeoutRetryDelay = timeoutRetryDelay
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = persistTimeout
	}
	return o
}

// Deps are the collaborators shared by every table.
type Deps struct {
	Clock     quartz.Clock
	Logger    *log.Logger
	Ledger    ledger.Service
	Store     store.SnapshotStore
	Evaluator holdem.HandEvaluator
	Send      Sender
}

// Event types for the actor message queue
type EventType int

const (
	EventJoinTable EventType = iota
	EventLeaveTable
	EventJoinSeat
	EventLeaveSeat
	EventAddChips
	EventAction
	EventTimeout
	EventNextHand
	EventConnLost
	EventConnResume
	EventResync
	EventClose
)

var eventNames = map[EventType]string{
	EventJoinTable:  "joinTable",
	EventLeaveTable: "leaveTable",
	EventJoinSeat:   "joinSeat",
	EventLeaveSeat:  "leaveSeat",
	EventAddChips:   "addChips",
	EventAction:     "gameAction",
	EventTimeout:    "timeout",
	EventNextHand:   "nextHand",
	EventConnLost:   "connLost",
	EventConnResume: "connResume",
	EventResync:     "requestUpdate",
	EventClose:      "close",
}

func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Event represents a message to the table actor
type Event struct {
	Type     EventType
	PlayerID string
	Seat     int
	Amount   int64
	Action   holdem.ActionType

	// Timer deliveries.
	Turn       holdem.TurnKey
	HandNumber int
	TimerSeq   uint64

	Response chan error
}

// HandEndInfo is emitted when a hand settlement is committed.
type HandEndInfo struct {
	TableID string
	Result  holdem.HandResult
}

// HandEndHook is a post-settlement callback.
type HandEndHook func(info HandEndInfo)

var ErrTableClosed = errors.New("table closed")

const (
	timeoutRetryDelay = time.Second
	persistTimeout    = 5 * time.Second
	eventQueueSize    = 256
)

type timerKind int

const (
	timerNone timerKind = iota
	timerTurn
	timerHandEnd
)

type timerTarget struct {
	kind timerKind
	turn holdem.TurnKey
	hand int
}

// New restores the table from the snapshot store when a snapshot exists,
// otherwise it creates an empty one, and starts the actor.
func New(ctx context.Context, id string, cfg holdem.Config, deps Deps, opts Options) (*Table, error) {
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("table %s: ledger is required", id)
	}

	state, restored, err := loadState(ctx, id, cfg, deps)
	if err != nil {
		return nil, err
	}

	t := &Table{
		ID:     id,
		state:  state,
		events: make(chan Event, eventQueueSize),
		done:   make(chan struct{}),
		clock:  deps.Clock,
		logger: deps.Logger.WithPrefix("table").With("table", id),
		ledger: deps.Ledger,
		store:  deps.Store,
		send:   deps.Send,
		opts:   opts.withDefaults(),
	}
	if t.send == nil {
		t.send = func(string, Message) {}
	}

	// 恢复后重新挂上计时器
	t.syncTimer()

	go t.run()

	if restored {
		t.logger.Info("restored", "hand", state.HandNumber, "seated", len(state.Seated), "status", state.Status)
	} else {
		t.logger.Info("created", "game", cfg.GameType, "max", cfg.MaxPlayers, "blinds", fmt.Sprintf("%d/%d", cfg.SmallBlind, cfg.BigBlind))
	}
	return t, nil
}

func loadState(ctx context.Context, id string, cfg holdem.Config, deps Deps) (*holdem.Table, bool, error) {
	lctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	data, err := deps.Store.Load(lctx, id)
	switch {
	case err == nil:
		state, err := holdem.Restore(data, deps.Evaluator)
		if err != nil {
			return nil, false, fmt.Errorf("table %s: restore snapshot: %w", id, err)
		}
		return state, true, nil
	case errors.Is(err, store.ErrNotFound):
		state, err := holdem.NewTable(id, cfg, deps.Evaluator)
		if err != nil {
			return nil, false, fmt.Errorf("table %s: %w", id, err)
		}
		return state, false, nil
	default:
		return nil, false, fmt.Errorf("table %s: load snapshot: %w", id, err)
	}
}

// run is the main actor loop
func (t *Table) run() {
	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-t.done:
			t.logger.Debug("actor stopped")
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	if t.isClosed() && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoinTable:
		return t.handleJoinTable(e.PlayerID)
	case EventLeaveTable:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.LeaveTable(e.PlayerID) })
	case EventJoinSeat:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.JoinSeat(e.PlayerID, e.Seat, e.Amount) })
	case EventLeaveSeat:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.LeaveSeat(e.PlayerID) })
	case EventAddChips:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.AddChips(e.PlayerID, e.Amount) })
	case EventAction:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.Act(e.PlayerID, e.Action, e.Amount) })
	case EventTimeout, EventNextHand:
		t.handleTimer(e)
		return nil
	case EventConnLost:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.SetConnected(e.PlayerID, false) })
	case EventConnResume:
		return t.mutate(e.Type, func(s *holdem.Table) error { return s.SetConnected(e.PlayerID, true) })
	case EventResync:
		if _, ok := t.state.Player(e.PlayerID); !ok {
			return holdem.ErrPlayerNotFound(e.PlayerID)
		}
		// read-only, nothing to persist
		next := t.state.Clone()
		next.Resync(e.PlayerID)
		t.deliver(next, next.DrainEffects().Notifications)
		return nil
	case EventClose:
		t.stop()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (t *Table) handleJoinTable(playerID string) error {
	if _, member := t.state.Player(playerID); !member {
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.PersistTimeout)
		defer cancel()
		balance, err := t.ledger.Balance(ctx, playerID)
		if err != nil {
			return holdem.Internal("balance", err)
		}
		if balance < t.state.Config.BuyIn {
			return holdem.Validationf("Insufficient balance")
		}
	}
	return t.mutate(EventJoinTable, func(s *holdem.Table) error { return s.JoinTable(playerID) })
}

// mutate applies fn to a copy of the state and commits it once the balance
// transfers and the snapshot write succeed. On any failure the committed
// state is left untouched.
func (t *Table) mutate(op EventType, fn func(next *holdem.Table) error) error {
	prev := t.state
	next := prev.Clone()
	if err := fn(next); err != nil {
		return err
	}
	fx := next.DrainEffects()

	ctx, cancel := context.WithTimeout(context.Background(), t.opts.PersistTimeout)
	defer cancel()

	applied, err := t.applyTransfers(ctx, fx.Transfers)
	if err != nil {
		t.compensate(applied)
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return holdem.Validationf("Insufficient balance")
		}
		t.logger.Error("ledger transfer failed", "op", op, "err", err)
		return holdem.Internal("ledger", err)
	}

	data, err := next.MarshalState()
	if err == nil {
		err = t.store.Save(ctx, t.ID, data)
	}
	if err != nil {
		t.compensate(applied)
		t.logger.Error("snapshot save failed", "op", op, "err", err)
		return holdem.Internal("snapshot", err)
	}

	t.mu.Lock()
	t.state = next
	t.mu.Unlock()

	t.syncTimer()
	t.deliver(next, fx.Notifications)

	if next.HandOver && next.LastResult != nil && (!prev.HandOver || prev.HandNumber != next.HandNumber) {
		t.handEnded(next)
	}
	return nil
}

func (t *Table) applyTransfers(ctx context.Context, transfers []holdem.Transfer) ([]holdem.Transfer, error) {
	applied := make([]holdem.Transfer, 0, len(transfers))
	for _, tr := range transfers {
		if _, err := t.ledger.Apply(ctx, tr.PlayerID, tr.Amount, tr.Reason); err != nil {
			return applied, err
		}
		applied = append(applied, tr)
	}
	return applied, nil
}

// compensate reverses already applied transfers, newest first.
func (t *Table) compensate(applied []holdem.Transfer) {
	if len(applied) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.opts.PersistTimeout)
	defer cancel()
	for i := len(applied) - 1; i >= 0; i-- {
		tr := applied[i]
		if _, err := t.ledger.Apply(ctx, tr.PlayerID, -tr.Amount, "reverse "+tr.Reason); err != nil {
			t.logger.Error("ledger compensation failed", "player", tr.PlayerID, "amount", -tr.Amount, "err", err)
		}
	}
}

// deliver routes committed notifications. Table updates are rendered per
// recipient so every player only sees their own hole cards.
func (t *Table) deliver(state *holdem.Table, notes []holdem.Notification) {
	if len(notes) == 0 {
		return
	}
	members := state.MemberIDs()
	for _, n := range notes {
		recipients := members
		if n.To != "" {
			recipients = []string{n.To}
		}
		for _, id := range recipients {
			msg := Message{Type: string(n.Kind), TableID: t.ID, Data: n.Payload}
			switch n.Kind {
			case holdem.NotifyTableUpdate:
				msg.Data = state.SnapshotFor(id)
			case holdem.NotifyPlayerTurn:
				msg.Data = t.stampTurn(n.Payload)
			}
			t.send(id, msg)
		}
	}
}

func (t *Table) stampTurn(payload any) any {
	turn, ok := payload.(holdem.PlayerTurn)
	if !ok {
		return payload
	}
	startedAt := t.clock.Now()
	if t.armed.kind == timerTurn && t.armed.turn == turn.Turn {
		startedAt = t.armedAt
	}
	turn.TurnStartTime = startedAt.UnixMilli()
	turn.TimeoutMs = t.opts.TurnTimeout.Milliseconds()
	return turn
}

// syncTimer makes the single timer match the committed state: a pending
// turn arms the action timeout, a finished hand arms the next-hand delay.
func (t *Table) syncTimer() {
	want := timerTarget{}
	var d time.Duration
	if turn, ok := t.state.CurrentTurn(); ok {
		want = timerTarget{kind: timerTurn, turn: turn}
		d = t.opts.TurnTimeout
	} else if t.state.Status == holdem.StatusPlaying && t.state.HandOver {
		want = timerTarget{kind: timerHandEnd, hand: t.state.HandNumber}
		d = t.opts.HandEndDelay
	}
	if want == t.armed {
		return
	}
	t.arm(want, d)
}

func (t *Table) arm(target timerTarget, d time.Duration) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.timerSeq++
	t.armed = target
	t.armedAt = t.clock.Now()
	if target.kind == timerNone {
		return
	}

	e := Event{TimerSeq: t.timerSeq}
	if target.kind == timerTurn {
		e.Type = EventTimeout
		e.Turn = target.turn
	} else {
		e.Type = EventNextHand
		e.HandNumber = target.hand
	}
	t.timer = t.clock.AfterFunc(d, func() {
		select {
		case t.events <- e:
		case <-t.done:
		}
	})
}

func (t *Table) handleTimer(e Event) {
	if e.TimerSeq != t.timerSeq {
		return
	}
	target := t.armed
	t.timer = nil
	t.armed = timerTarget{}

	var err error
	if e.Type == EventTimeout {
		err = t.mutate(EventTimeout, func(s *holdem.Table) error { return s.Timeout(e.Turn) })
	} else {
		err = t.mutate(EventNextHand, func(s *holdem.Table) error { return s.NextHand(e.HandNumber) })
	}
	switch {
	case err == nil:
	case errors.Is(err, holdem.ErrStaleTimer):
		t.syncTimer()
	default:
		t.logger.Warn("timer action failed, retrying", "kind", e.Type, "err", err, "retry", t.opts.TimeoutRetryDelay)
		t.arm(target, t.opts.TimeoutRetryDelay)
	}
}

func (t *Table) handEnded(state *holdem.Table) {
	result := *state.LastResult
	t.logger.Info("hand settled", "hand", result.HandNumber, "foldOut", result.FoldOut, "rake", result.Rake, "winners", len(result.Winners))
	t.persistHandHistory(state, result)
	t.dispatchHandEndHooks(result)
}

func (t *Table) persistHandHistory(state *holdem.Table, result holdem.HandResult) {
	rec := ledger.HandRecord{
		HandID:     result.HandID,
		TableID:    t.ID,
		HandNumber: result.HandNumber,
		Rake:       result.Rake,
		FoldOut:    result.FoldOut,
		PlayedAt:   t.clock.Now().UTC(),
	}
	for _, p := range state.Seated {
		if len(p.HoleCards) > 0 && p.HoleCards[0].Valid() {
			rec.Players = append(rec.Players, p.ID)
		}
	}
	won := make(map[string]int)
	for _, w := range result.Winners {
		if i, ok := won[w.PlayerID]; ok {
			rec.Winners[i].ChipsWon += w.ChipsWon
			continue
		}
		won[w.PlayerID] = len(rec.Winners)
		rec.Winners = append(rec.Winners, ledger.HandWinner{PlayerID: w.PlayerID, ChipsWon: w.ChipsWon, Description: w.HandDescription})
	}
	for _, c := range result.Board {
		rec.Board = append(rec.Board, c.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.opts.PersistTimeout)
	defer cancel()
	if err := t.ledger.RecordHand(ctx, rec); err != nil {
		t.logger.Error("record hand failed", "hand", rec.HandID, "err", err)
	}
}

func (t *Table) dispatchHandEndHooks(result holdem.HandResult) {
	t.hookMu.Lock()
	hooks := append([]HandEndHook(nil), t.handEndHooks...)
	t.hookMu.Unlock()
	if len(hooks) == 0 {
		return
	}
	info := HandEndInfo{TableID: t.ID, Result: result}
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		go func(cb HandEndHook) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("hand end hook panic", "panic", r)
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	t.hookMu.Lock()
	t.handEndHooks = append(t.handEndHooks, hook)
	t.hookMu.Unlock()
}

// SubmitEvent sends an event to the actor and waits for its result.
func (t *Table) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}
	if t.isClosed() {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop shuts down the table actor. The last snapshot stays in the store.
func (t *Table) Stop() {
	if err := t.SubmitEvent(Event{Type: EventClose}); err != nil && !errors.Is(err, ErrTableClosed) {
		t.logger.Warn("stop", "err", err)
	}
}

func (t *Table) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armed = timerTarget{}
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Table) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func (t *Table) IsClosed() bool { return t.isClosed() }

// Snapshot returns the public view of the committed state.
func (t *Table) Snapshot() holdem.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Snapshot()
}

// SnapshotFor returns the committed state as seen by playerID.
func (t *Table) SnapshotFor(playerID string) holdem.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.SnapshotFor(playerID)
}

// IsMember reports whether playerID has joined the table.
func (t *Table) IsMember(playerID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.state.Player(playerID)
	return ok
}
