// Package authz decides which player may look at what.
package authz

// Policy is injected into services that gate reads by identity.
type Policy interface {
	IsAdmin(playerID int64) bool
	// CanViewSession reports whether viewer may read a combat session with
	// the given participants.
	CanViewSession(viewerID int64, participantIDs []int64) bool
}

// StaticPolicy treats a fixed set of player ids as administrators.
type StaticPolicy struct {
	admins map[int64]struct{}
}

func NewStaticPolicy(adminIDs []int64) *StaticPolicy {
	p := &StaticPolicy{admins: make(map[int64]struct{}, len(adminIDs))}
	for _, id := range adminIDs {
		if id > 0 {
			p.admins[id] = struct{}{}
		}
	}
	return p
}

func (p *StaticPolicy) IsAdmin(playerID int64) bool {
	_, ok := p.admins[playerID]
	return ok
}

func (p *StaticPolicy) CanViewSession(viewerID int64, participantIDs []int64) bool {
	if p.IsAdmin(viewerID) {
		return true
	}
	for _, id := range participantIDs {
		if id == viewerID {
			return true
		}
	}
	return false
}
