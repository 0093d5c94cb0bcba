// Package combat resolves fights between two sides of combatants.
//
// The resolver is pure: it never touches storage and cannot fail on valid
// input. Callers validate rosters (active ships, co-location) before calling
// it and persist the Outcome afterwards.
package combat

import "strings"

// Kind tags the variant of a combatant.
type Kind string

const (
	KindPlayerShip     Kind = "player_ship"
	KindPirateShip     Kind = "pirate_ship"
	KindColonyDefender Kind = "colony_defender"
)

type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

func (s Side) Opposite() Side {
	if s == SideAttacker {
		return SideDefender
	}
	return SideAttacker
}

// Combatant is anything that deals and receives damage. Players are
// referenced by id only; the resolver never reaches back into storage.
type Combatant struct {
	Kind      Kind   `json:"kind"`
	Ref       int64  `json:"ref"` // player_ship id, or generation index for NPCs
	Name      string `json:"name"`
	OwnerID   int64  `json:"owner_id,omitempty"` // 0 for NPCs
	OwnerName string `json:"owner_name,omitempty"`
	Hull      int    `json:"hull"`
	MaxHull   int    `json:"max_hull"`
	Weapons   int    `json:"weapons"`
	Speed     int    `json:"speed"`
	WarpDrive int    `json:"warp_drive"`
}

func (c Combatant) IsNPC() bool { return c.OwnerID == 0 }

func (c Combatant) Destroyed() bool { return c.Hull <= 0 }

// Label is the name used in narrative lines.
func (c Combatant) Label() string {
	if c.OwnerName != "" {
		return c.OwnerName
	}
	return c.Name
}

// EntryKind is the closed set of combat log entry types.
type EntryKind string

const (
	EntryHeader    EntryKind = "header"
	EntryInfo      EntryKind = "info"
	EntryDivider   EntryKind = "divider"
	EntryRound     EntryKind = "round"
	EntryAttack    EntryKind = "attack"
	EntryDestroyed EntryKind = "destroyed"
	EntryVictory   EntryKind = "victory"
	EntryDefeat    EntryKind = "defeat"
	EntryDamage    EntryKind = "damage"
	EntryCapture   EntryKind = "capture"
	EntryReward    EntryKind = "reward"
	EntryDeath     EntryKind = "death"
)

var entryKinds = map[EntryKind]struct{}{
	EntryHeader: {}, EntryInfo: {}, EntryDivider: {}, EntryRound: {}, EntryAttack: {},
	EntryDestroyed: {}, EntryVictory: {}, EntryDefeat: {}, EntryDamage: {}, EntryCapture: {},
	EntryReward: {}, EntryDeath: {},
}

func (k EntryKind) Valid() bool {
	_, ok := entryKinds[k]
	return ok
}

// LogEntry is one line of the narrative. Entries are append-only and their
// order is the order events happened in.
type LogEntry struct {
	Kind    EntryKind `json:"type"`
	Message string    `json:"message"`
	Round   int       `json:"round,omitempty"`
}

const dividerWidth = 50

var divider = strings.Repeat("─", dividerWidth)
