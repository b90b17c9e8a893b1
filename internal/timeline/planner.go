// Package timeline is the composition engine: it turns an analysis
// document into a deterministic list of per-segment render jobs, a
// source-to-output time mapping, and an audio mix plan. It never touches
// media itself; rendering is the engine binding's job.
package timeline

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/analysis"
)

// TransitionOverlap is the fixed slice of timeline a configured
// transition consumes from the join between two adjacent cuts.
const TransitionOverlap = 0.5

// Zoom crop factors. A tighter crop reads as a deeper zoom once the
// frame is scaled back up to the target size.
const (
	zoomInFactor  = 1.30
	zoomOutFactor = 1.12
)

// SegmentJob describes one external-engine invocation: trim this source
// range and burn in the ordered filter stack.
type SegmentJob struct {
	Index    int
	Source   string
	Start    float64
	Duration float64
	Filters  []string
	Output   string
}

// MapEntry places one retained cut on the output timeline.
type MapEntry struct {
	SourceStart float64
	SourceEnd   float64
	OutputStart float64
}

// SourceMap is the ordered cut-to-output mapping, used to relocate
// overlay events after cuts and transitions reshape the timeline.
type SourceMap []MapEntry

// Locate maps a source timestamp to its output-timeline position.
// Returns false when the timestamp falls outside every retained cut.
func (m SourceMap) Locate(t float64) (float64, bool) {
	for _, e := range m {
		if t >= e.SourceStart && t < e.SourceEnd {
			return e.OutputStart + (t - e.SourceStart), true
		}
	}
	return 0, false
}

// Plan is the full composition for one document.
type Plan struct {
	Segments []SegmentJob
	Map      SourceMap
	// Total is the planned output duration: the final cumulative output
	// end, with each transition's overlap already consumed.
	Total float64
}

// Options configures a Planner.
type Options struct {
	// Target frame for vertical output.
	Width  int
	Height int
}

// Planner builds render plans. Planning is pure: the same document and
// options always produce the same plan.
type Planner struct {
	logger zerolog.Logger
	opts   Options
}

// NewPlanner creates a planner.
func NewPlanner(logger zerolog.Logger, opts Options) *Planner {
	return &Planner{
		logger: logger.With().Str("component", "planner").Logger(),
		opts:   opts,
	}
}

// Plan walks the document's cuts in order and emits one SegmentJob per
// retained cut. sourcePath is the raw video; scratchDir receives the
// per-segment intermediate files.
func (p *Planner) Plan(doc *analysis.Document, sourcePath, scratchDir string) (*Plan, error) {
	effects, err := parseEffects(doc.VisualEffects)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	cursor := 0.0 // cumulative output end of the previous retained cut

	for i, cut := range doc.Cuts {
		start, err := ParseTimestamp(cut.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(cut.EndTime)
		if err != nil {
			return nil, err
		}

		duration := end - start
		if duration <= 0 {
			p.logger.Warn().
				Int("cut", i).
				Str("start", cut.StartTime).
				Str("end", cut.EndTime).
				Msg("skipping cut with non-positive duration")
			continue
		}

		outputStart := cursor
		if len(plan.Segments) > 0 && cut.Transition != "" {
			outputStart -= TransitionOverlap
		}
		cursor = outputStart + duration

		plan.Map = append(plan.Map, MapEntry{
			SourceStart: start,
			SourceEnd:   end,
			OutputStart: outputStart,
		})

		job := SegmentJob{
			Index:    i,
			Source:   sourcePath,
			Start:    start,
			Duration: duration,
			Filters:  p.segmentFilters(cut, start, end, effects),
			Output:   filepath.Join(scratchDir, fmt.Sprintf("seg_%03d.mp4", i)),
		}
		plan.Segments = append(plan.Segments, job)
	}

	plan.Total = cursor
	return plan, nil
}

// segmentFilters builds the ordered filter stack for one cut: color
// filter, vertical reframe, at most one zoom, caption overlay.
func (p *Planner) segmentFilters(cut analysis.Cut, start, end float64, effects []effectRange) []string {
	var filters []string

	if cf := colorFilter(cut.Filter); cf != "" {
		filters = append(filters, cf)
	}

	filters = append(filters, p.reframeFilters(cut.Focus())...)

	if fx, ok := matchEffect(effects, start, end); ok {
		filters = append(filters, p.zoomFilters(fx.kind)...)
	}

	if cut.Caption != "" {
		filters = append(filters, p.captionFilters(cut.Caption, cut.CaptionStyle)...)
	}

	return filters
}

// reframeFilters scales to the target height and crops the target width
// anchored at (iw - targetW) * focus: 0 flush left, 0.5 centered, 1
// flush right.
func (p *Planner) reframeFilters(focus float64) []string {
	return []string{
		fmt.Sprintf("scale=-2:%d", p.opts.Height),
		fmt.Sprintf("crop=%d:%d:%s:0", p.opts.Width, p.opts.Height, CropX(p.opts.Width, focus)),
	}
}

// CropX returns the crop x expression for a focus point against the
// (post-scale) input width.
func CropX(targetWidth int, focus float64) string {
	return fmt.Sprintf("(iw-%d)*%.4f", targetWidth, focus)
}

// EvalCropX evaluates the crop anchor for a known frame width. The
// planner emits the symbolic form; this is the same arithmetic ffmpeg
// performs.
func EvalCropX(frameWidth, targetWidth int, focus float64) float64 {
	return float64(frameWidth-targetWidth) * focus
}

func (p *Planner) zoomFilters(kind string) []string {
	var factor float64
	switch kind {
	case "zoom_in":
		factor = zoomInFactor
	case "zoom_out":
		factor = zoomOutFactor
	default:
		return nil
	}
	return []string{
		fmt.Sprintf("crop=iw/%.2f:ih/%.2f", factor, factor),
		fmt.Sprintf("scale=%d:%d", p.opts.Width, p.opts.Height),
	}
}

// colorFilter maps a named look to its ffmpeg filter. Unknown names fall
// through to no filter rather than failing the cut.
func colorFilter(name string) string {
	switch name {
	case "sepia":
		return "colorchannelmixer=.393:.769:.189:0:.349:.686:.168:0:.272:.534:.131"
	case "grayscale":
		return "hue=s=0"
	case "vivid":
		return "eq=saturation=1.5"
	default:
		return ""
	}
}

// effectRange is a visual effect with its timestamps already parsed.
type effectRange struct {
	start float64
	end   float64
	kind  string
}

func parseEffects(raw []analysis.VisualEffect) ([]effectRange, error) {
	var effects []effectRange
	for _, fx := range raw {
		if fx.Kind != "zoom_in" && fx.Kind != "zoom_out" {
			continue
		}
		start, err := ParseTimestamp(fx.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(fx.End)
		if err != nil {
			return nil, err
		}
		effects = append(effects, effectRange{start: start, end: end, kind: fx.Kind})
	}
	return effects, nil
}

// matchEffect finds the first effect overlapping the cut's source range.
// At most one effect applies per segment.
func matchEffect(effects []effectRange, start, end float64) (effectRange, bool) {
	for _, fx := range effects {
		if fx.start < end && fx.end > start {
			return fx, true
		}
	}
	return effectRange{}, false
}
