package timeline

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/analysis"
)

// SoundResolver maps a sound-effect tag to a concrete asset path.
// matched is false when the tag fell through to the default asset.
type SoundResolver interface {
	ResolveSound(tag string) (path string, matched bool)
}

// MixOptions carries the fixed gains and the already-validated BGM path
// (empty when no usable background track exists).
type MixOptions struct {
	MainGain float64
	BGMGain  float64
	SEGain   float64
	FadeOut  float64
	BGMPath  string
}

// SoundCue is one scheduled sound effect on the output timeline.
type SoundCue struct {
	Tag        string
	Asset      string
	OutputTime float64
}

// MixPlan is the audio-layering plan for the finalize step. When
// FilterGraph is empty the mix is skipped and the main track passes
// through unmodified.
type MixPlan struct {
	// ExtraInputs are additional engine inputs after the concatenated
	// video: the BGM track (if any) followed by one asset per cue.
	ExtraInputs []string
	// FilterGraph mixes all layers with first-input duration semantics
	// and a tail fade ending at the planned total; output label [aout].
	FilterGraph string
	Cues        []SoundCue
	BGM         string
	Total       float64
}

// HasMix reports whether the finalize step needs a filter graph.
func (m *MixPlan) HasMix() bool { return m.FilterGraph != "" }

// BuildMixPlan schedules the audio layers for a plan: main track,
// background music, and every sound event that lands inside a retained
// cut. Events outside the retained timeline are dropped silently.
func BuildMixPlan(logger zerolog.Logger, plan *Plan, doc *analysis.Document, sounds SoundResolver, opts MixOptions) (*MixPlan, error) {
	log := logger.With().Str("component", "mixer").Logger()

	mix := &MixPlan{
		BGM:   opts.BGMPath,
		Total: plan.Total,
	}

	for _, ev := range doc.SoundEvents {
		t, err := ParseTimestamp(ev.Timestamp)
		if err != nil {
			return nil, err
		}

		out, ok := plan.Map.Locate(t)
		if !ok {
			log.Debug().
				Str("timestamp", ev.Timestamp).
				Str("tag", soundTag(ev)).
				Msg("sound event outside retained cuts, dropped")
			continue
		}

		tag := soundTag(ev)
		asset, matched := sounds.ResolveSound(tag)
		if asset == "" {
			continue
		}
		if !matched {
			log.Info().
				Str("tag", tag).
				Str("asset", asset).
				Msg("unmatched sound tag, using default asset")
		}

		mix.Cues = append(mix.Cues, SoundCue{Tag: tag, Asset: asset, OutputTime: out})
	}

	if opts.BGMPath == "" && len(mix.Cues) == 0 {
		return mix, nil
	}

	mix.buildGraph(opts)
	return mix, nil
}

// soundTag prefers the event's type over its freeform tag; the original
// producer uses type for the effect family and tag for mood.
func soundTag(ev analysis.SoundEvent) string {
	if ev.Type != "" {
		return ev.Type
	}
	return ev.Tag
}

// buildGraph assembles the filter_complex string. Input 0 is the
// concatenated video; extras follow in ExtraInputs order.
func (m *MixPlan) buildGraph(opts MixOptions) {
	var parts []string
	var labels []string

	parts = append(parts, fmt.Sprintf("[0:a]volume=%.2f[amain]", opts.MainGain))
	labels = append(labels, "[amain]")

	input := 1
	if opts.BGMPath != "" {
		m.ExtraInputs = append(m.ExtraInputs, opts.BGMPath)
		// Loop the track, then trim to the planned total so a short BGM
		// covers the whole video and a long one never extends it.
		parts = append(parts, fmt.Sprintf(
			"[%d:a]aloop=loop=-1:size=2147483647,atrim=0:%.3f,volume=%.2f[abgm]",
			input, m.Total, opts.BGMGain,
		))
		labels = append(labels, "[abgm]")
		input++
	}

	for i, cue := range m.Cues {
		m.ExtraInputs = append(m.ExtraInputs, cue.Asset)
		delayMS := int(cue.OutputTime * 1000)
		parts = append(parts, fmt.Sprintf(
			"[%d:a]adelay=%d|%d,volume=%.2f[ase%d]",
			input, delayMS, delayMS, opts.SEGain, i,
		))
		labels = append(labels, fmt.Sprintf("[ase%d]", i))
		input++
	}

	fadeStart := m.Total - opts.FadeOut
	if fadeStart < 0 {
		fadeStart = 0
	}

	parts = append(parts, fmt.Sprintf(
		"%samix=inputs=%d:duration=first:dropout_transition=0,afade=t=out:st=%.3f:d=%.3f[aout]",
		strings.Join(labels, ""), len(labels), fadeStart, opts.FadeOut,
	))

	m.FilterGraph = strings.Join(parts, ";")
}
