package combat

import (
	"reflect"
	"strings"
	"testing"
)

func TestLogCodecRoundTrip(t *testing.T) {
	out := NewResolver(Options{Variance: DefaultVariance, Seed: 3}).Resolve(Engagement{
		Attackers: []Combatant{ship(1, "A", 100, 30)},
		Defenders: []Combatant{pirate(0, "X", 80, 12)},
	})
	data, err := EncodeLog(out.Log)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeLog(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, out.Log) {
		t.Fatalf("decoded log differs from original")
	}
}

func TestDecodeLogRejectsUnknownKind(t *testing.T) {
	data, err := EncodeLog([]LogEntry{{Kind: "explosion", Message: "boom"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeLog(data); err == nil {
		t.Fatalf("expected unknown entry type to be rejected")
	}
}

func TestRenderText(t *testing.T) {
	text := RenderText([]LogEntry{
		{Kind: EntryHeader, Message: "FIGHT"},
		{Kind: EntryVictory, Message: "won"},
	})
	if !strings.Contains(text, "FIGHT") || !strings.Contains(text, ">> won") {
		t.Fatalf("unexpected render: %q", text)
	}
}
