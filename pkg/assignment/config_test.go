package assignment

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettingsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing settings fixture: %v", err)
	}
	return path
}

func TestLoadSettingsAppliesDefaultsForZeroFields(t *testing.T) {
	path := writeSettingsFile(t, `
passengerMultiplier: 10
maxIterations: 5
`)
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.PassengerMultiplier != 10 {
		t.Errorf("PassengerMultiplier = %d, want 10", settings.PassengerMultiplier)
	}
	if settings.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", settings.MaxIterations)
	}
	// ConvergenceLimit was left unset in the file; the default must survive.
	if settings.ConvergenceLimit != DefaultSettings().ConvergenceLimit {
		t.Errorf("ConvergenceLimit = %v, want the default %v", settings.ConvergenceLimit, DefaultSettings().ConvergenceLimit)
	}
}

func TestLoadSettingsAcceptsBareIntegerDuration(t *testing.T) {
	path := writeSettingsFile(t, `
maxDelay: 120
`)
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.MaxDelay != 120 {
		t.Errorf("MaxDelay = %d, want 120", settings.MaxDelay)
	}
}

func TestLoadSettingsAcceptsISO8601Duration(t *testing.T) {
	path := writeSettingsFile(t, `
checkpointEnabled: true
checkpointTTL: PT90S
`)
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.CheckpointTTL != 90 {
		t.Errorf("CheckpointTTL = %d, want 90 seconds for PT90S", settings.CheckpointTTL)
	}
}

func TestLoadSettingsRejectsUnknownDecisionModel(t *testing.T) {
	path := writeSettingsFile(t, `
decisionModel: NotARealModel
`)
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected an error for an unknown decisionModel name")
	}
}

func TestLoadSettingsRejectsMissingFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Error("expected an error reading a nonexistent settings file")
	}
}

func TestLoadSettingsPropagatesValidationErrors(t *testing.T) {
	path := writeSettingsFile(t, `
passengerMultiplier: -1
`)
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected validation to reject a negative passengerMultiplier")
	}
}
