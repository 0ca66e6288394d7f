package holdem

import (
	"fmt"
	"time"
)

const (
	// TurnTimeout is how long an actor has before a forced action.
	TurnTimeout = 10 * time.Second
	// HandResultDisplay is the pause between a hand result and the next hand.
	HandResultDisplay = 4 * time.Second
	// MaxAfkRounds consecutive forced actions evict a player from their seat.
	MaxAfkRounds = 2
	// DefaultTableFeeRate is the rake fraction used when none is configured.
	DefaultTableFeeRate = 0.02
)

type Config struct {
	// Table
	MaxPlayers int      `json:"maxPlayers"`
	GameType   GameType `json:"gameType"`

	// Stakes
	BuyIn      int64 `json:"buyIn"`
	SmallBlind int64 `json:"smallBlind"`
	BigBlind   int64 `json:"bigBlind"`
	MinimumBet int64 `json:"minimumBet"`

	// Rake fraction taken from every pot, e.g. 0.02.
	TableFeeRate float64 `json:"tableFeeRate"`

	// RNG seed (0 => time-based)
	Seed int64 `json:"-"`
}

func (c Config) Validate() error {
	if c.MaxPlayers < 2 {
		return fmt.Errorf("MaxPlayers must be >= 2")
	}
	if c.GameType != GameTypeHoldem && c.GameType != GameTypeOmaha {
		return fmt.Errorf("unknown game type %d", c.GameType)
	}
	// 4 hole cards each plus a burned and dealt board must fit in one deck.
	if c.MaxPlayers*c.GameType.HoleCardCount()+8 > 52 {
		return fmt.Errorf("MaxPlayers %d too large for %s", c.MaxPlayers, c.GameType)
	}
	if c.SmallBlind < 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.BuyIn <= 0 {
		return fmt.Errorf("BuyIn must be > 0")
	}
	if c.MinimumBet < 0 {
		return fmt.Errorf("MinimumBet must be >= 0")
	}
	if c.TableFeeRate < 0 || c.TableFeeRate >= 1 {
		return fmt.Errorf("TableFeeRate must be in [0, 1)")
	}
	return nil
}
