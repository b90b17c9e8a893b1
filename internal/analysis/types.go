// Package analysis defines the edit-decision document an upstream
// analyzer drops into the inbox, one JSON file per source video. The
// document is read-only input: it is decoded once, drives exactly one
// render pass, and is never mutated.
package analysis

// Document is one analysis of a raw video: which ranges to keep and how
// to dress them up.
type Document struct {
	OriginalFilename string        `json:"original_filename"`
	Cuts             []Cut         `json:"cuts"`
	BGMPath          string        `json:"bgm_path,omitempty"`
	SoundEvents      []SoundEvent  `json:"se_events,omitempty"`
	VisualEffects    []VisualEffect `json:"visual_effects,omitempty"`
	Thumbnail        *Thumbnail    `json:"thumbnail,omitempty"`
}

// Cut is one retained source range. Order is significant: it defines the
// output sequence. Transition applies to the join with the previous cut.
type Cut struct {
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Description  string        `json:"description,omitempty"`
	Filter       string        `json:"filter"`
	Transition   string        `json:"transition_type,omitempty"`
	FocusPoint   *float64      `json:"focus_point,omitempty"`
	Caption      string        `json:"caption,omitempty"`
	CaptionStyle *CaptionStyle `json:"caption_style,omitempty"`
}

// Focus returns the horizontal crop anchor, defaulting to center.
func (c Cut) Focus() float64 {
	if c.FocusPoint == nil {
		return 0.5
	}
	f := *c.FocusPoint
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CaptionStyle is pure configuration; the planner resolves it to concrete
// drawtext parameters.
type CaptionStyle struct {
	Font            string `json:"font,omitempty"`     // sans, serif, default
	Color           string `json:"color,omitempty"`    // yellow, cyan, white, default
	Position        string `json:"position,omitempty"` // top, center, bottom, default
	Box             bool   `json:"box,omitempty"`
	BackgroundAsset string `json:"background_asset,omitempty"`
}

// SoundEvent places a sound effect at a source timestamp. Events outside
// every retained cut are dropped from the mix.
type SoundEvent struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Tag       string `json:"tag,omitempty"`
}

// VisualEffect marks a source range for a zoom transform. Kinds other
// than zoom_in/zoom_out are ignored.
type VisualEffect struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Kind  string `json:"type"`
}

// Thumbnail samples the original source directly, independent of the cut
// timeline.
type Thumbnail struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Color     string `json:"color,omitempty"`
}
