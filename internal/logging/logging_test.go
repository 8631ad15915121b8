package logging

import "testing"

func TestGetReturnsUsableLogger(t *testing.T) {
	log := Get()
	if log == nil {
		t.Fatal("Get() returned nil")
	}
	// Should not panic; zerolog is safe to call even with no assertions on output.
	log.Info().Msg("logging smoke test")
}

func TestSetLevelAcceptsKnownLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "warn", "error", "info", "bogus"} {
		SetLevel(lvl)
	}
}

func TestEventDedupSuppressesRepeatsWithinWindow(t *testing.T) {
	d := NewEventDedup()

	if !d.ShouldLog("cache_hit", "abc123") {
		t.Error("expected first occurrence to be loggable")
	}
	if d.ShouldLog("cache_hit", "abc123") {
		t.Error("expected immediate repeat to be suppressed")
	}
	if !d.ShouldLog("cache_miss", "abc123") {
		t.Error("expected a different event type with the same hash to be loggable")
	}
	if !d.ShouldLog("cache_hit", "def456") {
		t.Error("expected a different hash to be loggable")
	}
}
