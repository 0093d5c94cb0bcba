package combat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// EncodeLog serializes entries as lz4-compressed JSON for storage.
func EncodeLog(entries []LogEntry) ([]byte, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal combat log: %w", err)
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress combat log: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress combat log: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeLog(data []byte) ([]LogEntry, error) {
	if len(data) == 0 {
		return []LogEntry{}, nil
	}
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decompress combat log: %w", err)
	}
	var entries []LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal combat log: %w", err)
	}
	for i, e := range entries {
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("combat log entry %d: unknown type %q", i, e.Kind)
		}
	}
	return entries, nil
}

// RenderText renders entries as plain terminal text.
func RenderText(entries []LogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		switch e.Kind {
		case EntryHeader:
			sb.WriteString("\n" + e.Message + "\n\n")
		case EntryRound:
			sb.WriteString("\n" + e.Message + "\n")
		case EntryDivider:
			sb.WriteString(e.Message + "\n")
		case EntryVictory, EntryDefeat, EntryCapture, EntryDeath:
			sb.WriteString(">> " + e.Message + "\n")
		case EntryInfo, EntryAttack, EntryDestroyed, EntryDamage, EntryReward:
			sb.WriteString(e.Message + "\n")
		default:
			sb.WriteString("?? " + e.Message + "\n")
		}
	}
	return sb.String()
}

// Append adds a narrative entry after resolution, e.g. rewards.
func Append(entries []LogEntry, kind EntryKind, message string) []LogEntry {
	return append(entries, LogEntry{Kind: kind, Message: message})
}
