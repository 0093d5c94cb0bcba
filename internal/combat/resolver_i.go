package combat

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// DefaultVariance is the damage spread: each shot deals weapons ±20%.
	DefaultVariance  = 0.20
	DefaultMaxRounds = 100
)

type Options struct {
	// Variance is the fraction of weapons power a shot may deviate by.
	// Zero disables randomness entirely and every shot deals exactly the
	// weapons value.
	Variance  float64
	MaxRounds int
	Seed      int64
}

// Engagement describes one fight. Texts default to generic wording.
type Engagement struct {
	Title       string
	Attackers   []Combatant
	Defenders   []Combatant
	VictoryText string
	DefeatText  string
}

// Fighter is a combatant's state during and after a fight.
type Fighter struct {
	Combatant
	Side         Side `json:"side"`
	StartingHull int  `json:"starting_hull"`
	DamageDealt  int  `json:"damage_dealt"`
	DamageTaken  int  `json:"damage_taken"`
}

func (f *Fighter) alive() bool { return f.Hull > 0 }

type Outcome struct {
	Victor    Side       `json:"victor"`
	Rounds    int        `json:"rounds"`
	TimedOut  bool       `json:"timed_out,omitempty"`
	Attackers []Fighter  `json:"attackers"`
	Defenders []Fighter  `json:"defenders"`
	Log       []LogEntry `json:"combat_log"`
	Seed      int64      `json:"seed"`
	// Surplus is attacker damage that found no defender hull to absorb it:
	// overkill on killing shots plus shots fired after the last defender fell.
	Surplus int `json:"-"`
}

func (o Outcome) side(s Side) []Fighter {
	if s == SideAttacker {
		return o.Attackers
	}
	return o.Defenders
}

// Survivors returns fighters of side s with hull left.
func (o Outcome) Survivors(s Side) []Fighter {
	out := make([]Fighter, 0)
	for _, f := range o.side(s) {
		if f.Hull > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Fallen returns fighters of side s that were destroyed.
func (o Outcome) Fallen(s Side) []Fighter {
	out := make([]Fighter, 0)
	for _, f := range o.side(s) {
		if f.Hull <= 0 {
			out = append(out, f)
		}
	}
	return out
}

type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	if opts.Variance < 0 {
		opts.Variance = 0
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Resolver{opts: opts}
}

// WithSeed returns a resolver sharing the options but rolling from seed.
func (r *Resolver) WithSeed(seed int64) *Resolver {
	opts := r.opts
	opts.Seed = seed
	return &Resolver{opts: opts}
}

func (r *Resolver) Deterministic() bool { return r.opts.Variance == 0 }

// roundingSlack absorbs float error in weapons*variance at integer bounds.
const roundingSlack = 1e-9

type battle struct {
	rng       *rand.Rand
	variance  float64
	log       []LogEntry
	round     int
	attackers []*Fighter
	defenders []*Fighter
	surplus   int
}

// Resolve runs rounds until one side has no living combatant.
//
// Each round every living attacker fires at the living defender with the
// lowest current hull (earliest roster position breaks ties), then the
// defenders return fire under the same rule unless none is left. When
// MaxRounds is reached with both sides standing the defenders hold.
func (r *Resolver) Resolve(e Engagement) Outcome {
	b := &battle{
		rng:      rand.New(rand.NewSource(r.opts.Seed)),
		variance: r.opts.Variance,
	}
	b.attackers = enlist(e.Attackers, SideAttacker)
	b.defenders = enlist(e.Defenders, SideDefender)

	title := e.Title
	if title == "" {
		title = "⚔️  COMBAT INITIATED  ⚔️"
	}
	b.add(EntryHeader, "%s", title)
	b.roster("ATTACKERS:", b.attackers)
	b.roster("DEFENDERS:", b.defenders)
	b.add(EntryDivider, "%s", divider)

	timedOut := false
	for anyAlive(b.attackers) && anyAlive(b.defenders) {
		if b.round >= r.opts.MaxRounds {
			timedOut = true
			b.add(EntryInfo, "Combat timeout after %d rounds - the defenders hold their ground.", b.round)
			break
		}
		b.round++
		b.add(EntryRound, "🔹 ROUND %d", b.round)

		b.volley(b.attackers, b.defenders, "➜")
		if !anyAlive(b.defenders) {
			break
		}
		b.volley(b.defenders, b.attackers, "⬅")
	}

	victor := SideDefender
	if anyAlive(b.attackers) && !anyAlive(b.defenders) {
		victor = SideAttacker
	}

	b.add(EntryDivider, "%s", divider)
	if victor == SideAttacker {
		text := e.VictoryText
		if text == "" {
			text = "🏆 ATTACKERS are VICTORIOUS!"
		}
		b.add(EntryVictory, "%s", text)
	} else {
		text := e.DefeatText
		if text == "" {
			text = "🛡️ DEFENDERS are VICTORIOUS!"
		}
		b.add(EntryDefeat, "%s", text)
	}

	return Outcome{
		Victor:    victor,
		Rounds:    b.round,
		TimedOut:  timedOut,
		Attackers: settle(b.attackers),
		Defenders: settle(b.defenders),
		Log:       b.log,
		Seed:      r.opts.Seed,
		Surplus:   b.surplus,
	}
}

func (b *battle) add(kind EntryKind, format string, args ...any) {
	b.log = append(b.log, LogEntry{Kind: kind, Message: fmt.Sprintf(format, args...), Round: b.round})
}

func (b *battle) roster(label string, fighters []*Fighter) {
	b.add(EntryInfo, "%s", label)
	for _, f := range fighters {
		if f.IsNPC() {
			b.add(EntryInfo, "  • %s (Hull: %d/%d, Weapons: %d)", f.Name, f.Hull, f.MaxHull, f.Weapons)
			continue
		}
		b.add(EntryInfo, "  • %s: %s (Hull: %d/%d)", f.OwnerName, f.Name, f.Hull, f.MaxHull)
	}
}

func (b *battle) volley(shooters, targets []*Fighter, arrow string) {
	attacking := len(shooters) > 0 && shooters[0].Side == SideAttacker
	for _, shooter := range shooters {
		if !shooter.alive() {
			continue
		}
		dmg := b.damage(shooter.Weapons)
		target := weakest(targets)
		if target == nil {
			if attacking {
				b.surplus += dmg
			}
			continue
		}

		applied := dmg
		if applied > target.Hull {
			applied = target.Hull
		}
		target.Hull -= applied
		target.DamageTaken += applied
		shooter.DamageDealt += dmg

		b.add(EntryAttack, "  %s %s fires at %s for %d damage! (Hull: %d/%d)",
			arrow, shooter.Label(), target.Label(), dmg, target.Hull, target.MaxHull)

		if !target.alive() {
			if attacking {
				b.surplus += dmg - applied
			}
			if target.IsNPC() {
				b.add(EntryDestroyed, "  💥 %s DESTROYED!", target.Name)
			} else {
				b.add(EntryDestroyed, "  💥 %s's ship %s DESTROYED!", target.OwnerName, target.Name)
			}
		}
	}
}

// damage rolls uniformly in [floor(w-w*v), ceil(w+w*v)].
func (b *battle) damage(weapons int) int {
	if weapons <= 0 {
		return 0
	}
	if b.variance == 0 {
		return weapons
	}
	// Bounds round toward the weapon value so the roll never leaves the
	// variance window; small weapon values therefore roll a narrower band.
	spread := float64(weapons) * b.variance
	lo := int(math.Ceil(float64(weapons) - spread - roundingSlack))
	hi := int(math.Floor(float64(weapons) + spread + roundingSlack))
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo + b.rng.Intn(hi-lo+1)
}

func enlist(cs []Combatant, side Side) []*Fighter {
	out := make([]*Fighter, 0, len(cs))
	for _, c := range cs {
		if c.Hull > c.MaxHull {
			c.Hull = c.MaxHull
		}
		if c.Hull < 0 {
			c.Hull = 0
		}
		out = append(out, &Fighter{Combatant: c, Side: side, StartingHull: c.Hull})
	}
	return out
}

func settle(fs []*Fighter) []Fighter {
	out := make([]Fighter, 0, len(fs))
	for _, f := range fs {
		out = append(out, *f)
	}
	return out
}

func anyAlive(fs []*Fighter) bool {
	for _, f := range fs {
		if f.alive() {
			return true
		}
	}
	return false
}

func weakest(fs []*Fighter) *Fighter {
	var best *Fighter
	for _, f := range fs {
		if !f.alive() {
			continue
		}
		if best == nil || f.Hull < best.Hull {
			best = f
		}
	}
	return best
}
