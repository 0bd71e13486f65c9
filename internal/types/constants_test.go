package types

import (
	"testing"
)

func TestOSFamilyFor(t *testing.T) {
	tests := []struct {
		goos string
		want OSFamily
	}{
		{"darwin", OSFamilyDarwin},
		{"linux", OSFamilyPosix},
		{"freebsd", OSFamilyPosix},
		{"", OSFamilyPosix},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := OSFamilyFor(tt.goos); got != tt.want {
				t.Errorf("OSFamilyFor(%q) = %v, want %v", tt.goos, got, tt.want)
			}
		})
	}
}

func TestResolveArtifactState(t *testing.T) {
	tests := []struct {
		name      string
		present   bool
		force     bool
		want      ArtifactState
		wantFetch bool
	}{
		{"absent", false, false, ArtifactAbsent, true},
		{"present", true, false, ArtifactPresent, false},
		{"present forced", true, true, ArtifactForceRefresh, true},
		{"absent forced", false, true, ArtifactForceRefresh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveArtifactState(tt.present, tt.force)
			if got != tt.want {
				t.Errorf("ResolveArtifactState() = %v, want %v", got, tt.want)
			}
			if got.NeedsFetch() != tt.wantFetch {
				t.Errorf("NeedsFetch() = %v, want %v", got.NeedsFetch(), tt.wantFetch)
			}
		})
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Step
		wantErr bool
	}{
		{"artifact", "artifact", StepArtifact, false},
		{"uppercase", "CONFIG", StepConfig, false},
		{"hyphenated", "plugin-manager", StepPluginManager, false},
		{"empty", "", "", true},
		{"unknown", "kernel", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStep(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStep() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllStepsOrder(t *testing.T) {
	steps := AllSteps()
	if steps[0] != StepPath {
		t.Errorf("first step = %v, want %v", steps[0], StepPath)
	}
	if steps[len(steps)-1] != StepTerminfo {
		t.Errorf("last step = %v, want %v", steps[len(steps)-1], StepTerminfo)
	}

	index := make(map[Step]int)
	for i, s := range steps {
		index[s] = i
	}
	if index[StepDependencies] > index[StepArtifact] {
		t.Error("dependencies must run before artifact")
	}
	if index[StepPluginManager] > index[StepConfig] {
		t.Error("plugin manager must run before config")
	}
}

func TestActionChanges(t *testing.T) {
	if ActionSkip.Changes() || ActionNone.Changes() || ActionWarn.Changes() {
		t.Error("skip, none and warn must not report changes")
	}
	if !ActionFetch.Changes() || !ActionAppend.Changes() {
		t.Error("fetch and append must report changes")
	}
}
