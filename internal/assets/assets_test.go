package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testLibrary(t *testing.T, files ...string) *Library {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return NewLibrary(root, zerolog.Nop())
}

func TestResolveSoundByTag(t *testing.T) {
	lib := testLibrary(t,
		"se/impact.wav", "se/whoosh.wav", "se/laugh.wav",
		"se/correct.wav", "se/incorrect.wav", "se/pop.wav",
	)

	tests := []struct {
		tag         string
		wantFile    string
		wantMatched bool
	}{
		{"impact", "impact.wav", true},
		{"big_impact_hit", "impact.wav", true},
		{"WHOOSH", "whoosh.wav", true},
		{"laugh_track", "laugh.wav", true},
		// "incorrect" contains "correct"; rule order decides.
		{"incorrect", "incorrect.wav", true},
		{"correct", "correct.wav", true},
		{"mystery", "pop.wav", false},
		{"", "pop.wav", false},
	}

	for _, tt := range tests {
		path, matched := lib.ResolveSound(tt.tag)
		if filepath.Base(path) != tt.wantFile {
			t.Errorf("ResolveSound(%q) = %q, want file %q", tt.tag, path, tt.wantFile)
		}
		if matched != tt.wantMatched {
			t.Errorf("ResolveSound(%q) matched = %v, want %v", tt.tag, matched, tt.wantMatched)
		}
	}
}

func TestResolveSoundMissingAssets(t *testing.T) {
	// Rule matches but the file is absent, and so is the default.
	lib := testLibrary(t)

	path, matched := lib.ResolveSound("impact")
	if path != "" || matched {
		t.Errorf("ResolveSound with empty library = (%q, %v), want dropped cue", path, matched)
	}
}

func TestResolveSoundFallsBackToDefault(t *testing.T) {
	// The matched asset is missing but the default exists.
	lib := testLibrary(t, "se/pop.wav")

	path, matched := lib.ResolveSound("impact")
	if filepath.Base(path) != "pop.wav" || matched {
		t.Errorf("ResolveSound = (%q, %v), want default asset, unmatched", path, matched)
	}
}

func TestResolveBGM(t *testing.T) {
	lib := testLibrary(t, "bgm/requested.mp3", "bgm/default.mp3")

	if got := lib.ResolveBGM("bgm/requested.mp3", "bgm/default.mp3"); filepath.Base(got) != "requested.mp3" {
		t.Errorf("ResolveBGM should prefer the requested track, got %q", got)
	}

	if got := lib.ResolveBGM("bgm/absent.mp3", "bgm/default.mp3"); filepath.Base(got) != "default.mp3" {
		t.Errorf("ResolveBGM should fall back, got %q", got)
	}

	if got := lib.ResolveBGM("bgm/absent.mp3", "bgm/also_absent.mp3"); got != "" {
		t.Errorf("ResolveBGM with nothing usable = %q, want empty", got)
	}

	if got := lib.ResolveBGM("", ""); got != "" {
		t.Errorf("ResolveBGM with no candidates = %q, want empty", got)
	}
}
