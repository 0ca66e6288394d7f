package holdem

import (
	"fmt"
	"strings"
)

// NoSeat marks a player who has joined the table but holds no seat.
const NoSeat = -1

// GameType 玩法: Hold'em 两张手牌, Omaha 四张手牌
type GameType byte

const (
	GameTypeHoldem GameType = 0
	GameTypeOmaha  GameType = 1
)

var GameTypeDictionary = map[GameType]string{
	GameTypeHoldem: "holdem",
	GameTypeOmaha:  "omaha",
}

func (g GameType) String() string { return GameTypeDictionary[g] }

// HoleCardCount is the number of private cards dealt per player.
func (g GameType) HoleCardCount() int {
	if g == GameTypeOmaha {
		return 4
	}
	return 2
}

func ParseGameType(s string) (GameType, error) {
	for k, v := range GameTypeDictionary {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown game type %q", s)
}

func (g GameType) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *GameType) UnmarshalText(text []byte) error {
	v, err := ParseGameType(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Status 桌子状态
type Status byte

const (
	StatusWaiting Status = 0
	StatusPlaying Status = 1
)

var StatusDictionary = map[Status]string{
	StatusWaiting: "waiting",
	StatusPlaying: "playing",
}

func (s Status) String() string { return StatusDictionary[s] }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range StatusDictionary {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Round 下注轮
type Round byte

const (
	RoundPreflop  Round = 0
	RoundFlop     Round = 1
	RoundTurn     Round = 2
	RoundRiver    Round = 3
	RoundShowdown Round = 4
)

var RoundDictionary = map[Round]string{
	RoundPreflop:  "preflop",
	RoundFlop:     "flop",
	RoundTurn:     "turn",
	RoundRiver:    "river",
	RoundShowdown: "showdown",
}

func (r Round) String() string { return RoundDictionary[r] }

func (r Round) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Round) UnmarshalText(text []byte) error {
	for k, v := range RoundDictionary {
		if v == string(text) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown round %q", text)
}

// ActionType 动作类型：0-NONE 1-FOLD 2-CHECK 3-CALL 4-RAISE 5-ALLIN
type ActionType byte

const (
	PlayerActionTypeNone  ActionType = 0
	PlayerActionTypeFold  ActionType = 1
	PlayerActionTypeCheck ActionType = 2
	PlayerActionTypeCall  ActionType = 3
	PlayerActionTypeRaise ActionType = 4
	PlayerActionTypeAllin ActionType = 5
)

var PlayerActionTypeDictionary = map[ActionType]string{
	PlayerActionTypeNone:  "none",
	PlayerActionTypeFold:  "fold",
	PlayerActionTypeCheck: "check",
	PlayerActionTypeCall:  "call",
	PlayerActionTypeRaise: "raise",
	PlayerActionTypeAllin: "allin",
}

func (a ActionType) String() string { return PlayerActionTypeDictionary[a] }

func (a ActionType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseActionType maps a wire action name to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "all-in" {
		name = "allin"
	}
	for k, v := range PlayerActionTypeDictionary {
		if k != PlayerActionTypeNone && v == name {
			return k, nil
		}
	}
	return PlayerActionTypeNone, Validationf("Unknown action: %s", s)
}

func (a *ActionType) UnmarshalText(text []byte) error {
	if string(text) == PlayerActionTypeNone.String() || len(text) == 0 {
		*a = PlayerActionTypeNone
		return nil
	}
	v, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
