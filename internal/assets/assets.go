// Package assets resolves sound-effect tags and background-music paths
// against the reusable audio asset directory.
package assets

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/pkg/util"
)

// soundRule maps a tag substring to an asset file under <assets>/se/.
// The table is ordered: the first matching rule wins, so keep the more
// specific substrings ahead of the generic ones.
type soundRule struct {
	substr string
	file   string
}

var soundRules = []soundRule{
	{"impact", "impact.wav"},
	{"whoosh", "whoosh.wav"},
	{"laugh", "laugh.wav"},
	{"incorrect", "incorrect.wav"},
	{"correct", "correct.wav"},
	{"pop", "pop.wav"},
}

// defaultSound backs every tag the rule table does not recognize.
const defaultSound = "pop.wav"

// Library resolves asset names against a directory root.
type Library struct {
	root   string
	logger zerolog.Logger
}

// NewLibrary creates a library rooted at the configured assets dir.
func NewLibrary(root string, logger zerolog.Logger) *Library {
	return &Library{
		root:   root,
		logger: logger.With().Str("component", "assets").Logger(),
	}
}

// ResolveSound maps a sound-effect tag to an asset path by ordered
// substring match. Unmatched tags fall back to the default asset;
// matched is false in that case so the caller can log it. Returns an
// empty path when even the fallback asset is missing.
func (l *Library) ResolveSound(tag string) (string, bool) {
	lower := strings.ToLower(tag)
	for _, rule := range soundRules {
		if strings.Contains(lower, rule.substr) {
			path := filepath.Join(l.root, "se", rule.file)
			if util.FileExists(path) {
				return path, true
			}
			l.logger.Warn().Str("tag", tag).Str("path", path).Msg("sound asset missing")
			break
		}
	}

	fallback := filepath.Join(l.root, "se", defaultSound)
	if !util.FileExists(fallback) {
		l.logger.Warn().Str("tag", tag).Str("path", fallback).Msg("default sound asset missing, cue dropped")
		return "", false
	}
	return fallback, false
}

// ResolveBGM returns a usable background track path: the requested one
// when it exists, otherwise the configured fallback, otherwise empty.
// Relative paths are taken against the assets root.
func (l *Library) ResolveBGM(requested, fallback string) string {
	for _, cand := range []string{requested, fallback} {
		if cand == "" {
			continue
		}
		path := cand
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.root, path)
		}
		if util.FileExists(path) {
			return path
		}
		l.logger.Debug().Str("path", path).Msg("bgm candidate missing")
	}
	return ""
}
