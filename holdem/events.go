package holdem

import "holdem-live/card"

// NotificationKind names an outbound state-change message.
type NotificationKind string

const (
	NotifyTableUpdate          NotificationKind = "tableUpdate"
	NotifyGameStarted          NotificationKind = "gameStarted"
	NotifyDealCards            NotificationKind = "dealCards"
	NotifyPlayerTurn           NotificationKind = "playerTurn"
	NotifyRoundUpdate          NotificationKind = "roundUpdate"
	NotifyPlayerAction         NotificationKind = "playerAction"
	NotifyHandResult           NotificationKind = "handResult"
	NotifyPlayerRemoved        NotificationKind = "playerRemoved"
	NotifyPlayerMovedToWaiting NotificationKind = "playerMovedToWaiting"
	NotifyPlayerJoined         NotificationKind = "playerJoined"
	NotifyPlayerLeft           NotificationKind = "playerLeft"
	NotifyChipsAdded           NotificationKind = "chipsAdded"
	NotifyPlayerDisconnected   NotificationKind = "playerDisconnected"
	NotifyGameEnded            NotificationKind = "gameEnded"
)

// Notification is produced by the engine and routed by the runtime. An
// empty To means every member of the table.
type Notification struct {
	Kind    NotificationKind
	To      string
	Payload any
}

// Transfer moves chips between a player's external balance and the table.
// Positive amounts credit the balance (cash-out), negative ones debit it.
type Transfer struct {
	PlayerID string
	Amount   int64
	Reason   string
}

// Effects is everything a mutation wants the outside world to do once it
// has been committed.
type Effects struct {
	Notifications []Notification
	Transfers     []Transfer
}

type GameStarted struct {
	HandID         string `json:"handId"`
	HandNumber     int    `json:"handNumber"`
	DealerSeat     int    `json:"dealerSeat"`
	SmallBlindSeat int    `json:"smallBlindSeat"`
	BigBlindSeat   int    `json:"bigBlindSeat"`
	SmallBlind     int64  `json:"smallBlind"`
	BigBlind       int64  `json:"bigBlind"`
}

type DealCards struct {
	PlayerID string        `json:"playerId"`
	Cards    card.CardList `json:"cards"`
}

type PlayerTurn struct {
	PlayerID   string `json:"playerId"`
	Seat       int    `json:"seat"`
	Round      Round  `json:"round"`
	CurrentBet int64  `json:"currentBet"`
	CallAmount int64  `json:"callAmount"`
	Pot        int64  `json:"pot"`

	// stamped by the runtime, unix ms
	TurnStartTime int64   `json:"turnStartTime,omitempty"`
	TimeoutMs     int64   `json:"timeoutMs,omitempty"`
	Turn          TurnKey `json:"-"`
}

type RoundUpdate struct {
	Round          Round         `json:"round"`
	CommunityCards card.CardList `json:"communityCards"`
	Pot            int64         `json:"pot"`
}

type PlayerAction struct {
	PlayerID   string     `json:"playerId"`
	Seat       int        `json:"seat"`
	Action     ActionType `json:"action"`
	CurrentBet int64      `json:"currentBet"`
	Chips      int64      `json:"chips"`
	Pot        int64      `json:"pot"`
	Auto       bool       `json:"auto,omitempty"`
}

type PlayerRemoved struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Reason   string `json:"reason"`
	CashOut  int64  `json:"cashOut"`
}

type PlayerMoved struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Chips    int64  `json:"chips"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	CashOut  int64  `json:"cashOut"`
}

type ChipsAdded struct {
	PlayerID string `json:"playerId"`
	Amount   int64  `json:"amount"`
	Chips    int64  `json:"chips"`
}

type PlayerDisconnected struct {
	PlayerID string `json:"playerId"`
}

type GameEnded struct {
	Reason string `json:"reason"`
}

func (t *Table) emit(kind NotificationKind, to string, payload any) {
	t.outbox.Notifications = append(t.outbox.Notifications, Notification{Kind: kind, To: to, Payload: payload})
}

func (t *Table) emitTableUpdate() {
	t.emit(NotifyTableUpdate, "", nil)
}

func (t *Table) transfer(playerID string, amount int64, reason string) {
	if amount == 0 {
		return
	}
	t.outbox.Transfers = append(t.outbox.Transfers, Transfer{PlayerID: playerID, Amount: amount, Reason: reason})
}

// DrainEffects returns and clears the pending notifications and transfers.
func (t *Table) DrainEffects() Effects {
	out := t.outbox
	t.outbox = Effects{}
	return out
}
