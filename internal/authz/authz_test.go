package authz

import "testing"

func TestStaticPolicy(t *testing.T) {
	p := NewStaticPolicy([]int64{7, 0, -3})

	tests := []struct {
		name         string
		viewer       int64
		participants []int64
		want         bool
	}{
		{"admin sees anything", 7, []int64{1, 2}, true},
		{"participant sees own fight", 2, []int64{1, 2}, true},
		{"outsider is refused", 3, []int64{1, 2}, false},
		{"zero id is never admin", 0, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.CanViewSession(tc.viewer, tc.participants); got != tc.want {
				t.Fatalf("CanViewSession(%d) = %v, want %v", tc.viewer, got, tc.want)
			}
		})
	}
	if p.IsAdmin(-3) {
		t.Fatalf("negative ids must be ignored")
	}
}
