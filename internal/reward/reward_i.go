// Package reward computes experience and credit payouts from resolved fights.
package reward

const (
	PvPVictorXP   = 100
	TeamVictoryXP = 150
	ColonySiegeXP = 200
	MinPirateXP   = 25
)

// PirateXP scales with fleet size and average pirate weapons and never drops
// below MinPirateXP.
func PirateXP(fleetSize, totalWeapons int) int64 {
	if fleetSize <= 0 {
		return MinPirateXP
	}
	avg := totalWeapons / fleetSize
	xp := 50*fleetSize + avg/2 + 25*(fleetSize-1)
	if xp < MinPirateXP {
		xp = MinPirateXP
	}
	return int64(xp)
}

// SplitXP divides total among n recipients rounding up, so nobody gets zero.
func SplitXP(total int64, n int) int64 {
	if n <= 0 {
		return 0
	}
	return (total + int64(n) - 1) / int64(n)
}

type Payout struct {
	PlayerID int64 `json:"player_id"`
	Credits  int64 `json:"credits"`
}

// WagerPot is the full pot for a wager fight: every participant staked it.
func WagerPot(wager int64, participants int) int64 {
	if wager <= 0 || participants <= 0 {
		return 0
	}
	return wager * int64(participants)
}

// SplitPot pays the pot out evenly to the surviving victors in roster order.
// Credits left over from integer division go one each to the first
// survivors, so the whole pot is always paid.
func SplitPot(pot int64, survivors []int64) []Payout {
	out := make([]Payout, 0, len(survivors))
	if pot <= 0 || len(survivors) == 0 {
		for _, id := range survivors {
			out = append(out, Payout{PlayerID: id})
		}
		return out
	}
	n := int64(len(survivors))
	share, rest := pot/n, pot%n
	for i, id := range survivors {
		p := Payout{PlayerID: id, Credits: share}
		if int64(i) < rest {
			p.Credits++
		}
		out = append(out, p)
	}
	return out
}
