package combat

import "testing"

func TestPreviewFightBands(t *testing.T) {
	tests := []struct {
		name       string
		weapons    int
		enemies    []int
		difficulty string
		chance     int
	}{
		{"easy", 50, []int{20, 20}, "Easy", 90},
		{"boundary twenty is moderate", 40, []int{20}, "Moderate", 70},
		{"even is challenging", 20, []int{20}, "Challenging", 50},
		{"dangerous", 10, []int{40}, "Dangerous", 30},
		{"deadly", 10, []int{60, 60}, "Deadly", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enemies []Combatant
			for i, w := range tt.enemies {
				enemies = append(enemies, pirate(int64(i), "p", 100, w))
			}
			p := PreviewFight(ship(1, "A", 100, tt.weapons), enemies)
			if p.Difficulty != tt.difficulty || p.WinChance != tt.chance {
				t.Fatalf("expected %s/%d, got %s/%d", tt.difficulty, tt.chance, p.Difficulty, p.WinChance)
			}
		})
	}
}
