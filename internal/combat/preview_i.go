package combat

// Preview is a rough pre-fight estimate shown before engaging.
type Preview struct {
	Difficulty   string  `json:"difficulty"`
	WinChance    int     `json:"win_chance"`
	YourWeapons  int     `json:"your_weapons"`
	YourHull     int     `json:"your_hull"`
	EnemyCount   int     `json:"enemy_count"`
	EnemyWeapons int     `json:"enemy_total_weapons"`
	EnemyHull    int     `json:"enemy_total_hull"`
	Advantage    float64 `json:"advantage"`
}

var previewBands = []struct {
	above      float64
	difficulty string
	chance     int
}{
	{20, "Easy", 90},
	{0, "Moderate", 70},
	{-20, "Challenging", 50},
	{-40, "Dangerous", 30},
}

// PreviewFight compares ship weapons with the average enemy weapons.
func PreviewFight(ship Combatant, enemies []Combatant) Preview {
	p := Preview{
		YourWeapons: ship.Weapons,
		YourHull:    ship.Hull,
		EnemyCount:  len(enemies),
	}
	for _, e := range enemies {
		p.EnemyWeapons += e.Weapons
		p.EnemyHull += e.Hull
	}
	avg := 0.0
	if len(enemies) > 0 {
		avg = float64(p.EnemyWeapons) / float64(len(enemies))
	}
	p.Advantage = float64(ship.Weapons) - avg

	p.Difficulty, p.WinChance = "Deadly", 10
	for _, band := range previewBands {
		if p.Advantage > band.above {
			p.Difficulty, p.WinChance = band.difficulty, band.chance
			break
		}
	}
	return p
}
