package log

import "testing"

func TestSetupLogger(t *testing.T) {
	SetupLogger(LevelDebug)
	Logger = Logger.With("component", "test")
	Logger.Debug("This is debug level log")
	Logger.Debugf("This is debug level log: %s", "test")
	Logger.Warn("This is warn level log")
	Logger.Warnf("This is warn level log: %s", "test")
	Logger.Info("This is info level log")
	Logger.Infof("This is info level log: %s", "test")
	Logger.Error("This is error level log")
	Logger.Errorf("This is error level log: %s", "test")
}

func TestSetupLoggerJSON(t *testing.T) {
	SetupLoggerWithFormat(LevelInfo, FormatJSON)
	Component("combat").Infow("combat resolved", "rounds", 3, "victor", "attacker")
	SetupLogger(LevelInfo)
}

func TestRegisterComponentColor(t *testing.T) {
	if !RegisterComponentColor("salvage", "lime") {
		t.Fatalf("lime preset should be accepted")
	}
	if RegisterComponentColor("salvage", "ultraviolet") {
		t.Fatalf("unknown preset should be rejected")
	}
	if RegisterComponentColor("", "teal") {
		t.Fatalf("empty component should be rejected")
	}
}

func TestRegisterComponentPalette(t *testing.T) {
	rejected := RegisterComponentPalette(map[string]string{
		"pvp":    "orange",
		"colony": "neon",
		"death":  "Gray",
		"":       "teal",
	})
	if len(rejected) != 2 || rejected[0] != "" || rejected[1] != "colony" {
		t.Fatalf("unexpected rejected components: %q", rejected)
	}
	if componentColorMap["pvp"] != ansiOrange || componentColorMap["death"] != ansiGray {
		t.Fatalf("palette not applied")
	}
	componentColorMap["pvp"] = ansiPurple
	componentColorMap["death"] = ansiWhite
}

func TestExtractComponent(t *testing.T) {
	SetupLogger(LevelDebug)
	l := Component("pvp")
	if l == nil {
		t.Fatalf("component logger should not be nil")
	}
	l.Debugf("challenge %d issued", 7)
}
