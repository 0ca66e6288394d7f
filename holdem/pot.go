package holdem

import (
	"math"
	"sort"
)

type sidePot struct {
	amount   int64
	eligible []*Player // seat order
}

// buildPots splits the committed chips into a main pot and side pots, one
// per distinct commitment level among players still in the hand. Folded
// players and the dead commitments of players who left contribute up to
// each level; chips above the highest live level join the top pot.
func buildPots(players []*Player, dead []int64) []sidePot {
	levels := make([]int64, 0, len(players))
	seen := make(map[int64]bool, len(players))
	for _, p := range players {
		if p.InHand && p.Committed > 0 && !seen[p.Committed] {
			seen[p.Committed] = true
			levels = append(levels, p.Committed)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	contributions := make([]int64, 0, len(players)+len(dead))
	for _, p := range players {
		contributions = append(contributions, p.Committed)
	}
	contributions = append(contributions, dead...)

	pots := make([]sidePot, 0, len(levels))
	var prev int64
	for i, level := range levels {
		top := i == len(levels)-1
		var amount int64
		for _, c := range contributions {
			if top {
				amount += max(0, c-prev)
			} else {
				amount += min(c, level) - min(c, prev)
			}
		}

		var eligible []*Player
		for _, p := range players {
			if p.InHand && p.Committed >= level {
				eligible = append(eligible, p)
			}
		}
		sort.SliceStable(eligible, func(a, b int) bool { return eligible[a].Seat < eligible[b].Seat })

		pots = append(pots, sidePot{amount: amount, eligible: eligible})
		prev = level
	}
	return pots
}

// feeMicros converts the rake fraction to an integer rate so rake is an
// exact floor of amount*rate.
func feeMicros(rate float64) int64 {
	return int64(math.Round(rate * 1_000_000))
}

func rakeOf(amount int64, rate float64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount * feeMicros(rate) / 1_000_000
}

// splitPot 平分奖池, 余数给座位顺序第一个赢家
func splitPot(amount int64, winners []*Player) []int64 {
	shares := make([]int64, len(winners))
	if len(winners) == 0 {
		return shares
	}
	n := int64(len(winners))
	for i := range shares {
		shares[i] = amount / n
	}
	shares[0] += amount % n
	return shares
}
