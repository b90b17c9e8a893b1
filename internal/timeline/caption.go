package timeline

import (
	"fmt"
	"strings"

	"github.com/naki0227/nue/internal/analysis"
)

// caption defaults: sans font, white, bottom, no box.
const (
	defaultFont     = "DejaVu Sans"
	defaultColor    = "white"
	captionFontSize = 72
)

// captionFilters resolves a caption style to drawtext (and optionally
// drawbox) filters. The highlight bar is drawn first so the text lands
// on top of it.
func (p *Planner) captionFilters(text string, style *analysis.CaptionStyle) []string {
	if style == nil {
		style = &analysis.CaptionStyle{}
	}

	var filters []string

	yExpr, barY := captionPosition(style.Position)

	if bar := backgroundBar(style.BackgroundAsset, barY); bar != "" {
		filters = append(filters, bar)
	}

	draw := fmt.Sprintf(
		"drawtext=text='%s':font='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%s",
		EscapeText(text), captionFont(style.Font), captionFontSize, captionColor(style.Color), yExpr,
	)
	if style.Box {
		draw += ":box=1:boxcolor=black@0.5:boxborderw=18"
	}
	filters = append(filters, draw)

	return filters
}

func captionFont(name string) string {
	switch name {
	case "serif":
		return "DejaVu Serif"
	case "sans", "default", "":
		return defaultFont
	default:
		return defaultFont
	}
}

func captionColor(name string) string {
	switch name {
	case "yellow", "cyan", "white":
		return name
	default:
		return defaultColor
	}
}

// captionPosition returns the drawtext y expression and the matching
// highlight-bar top (as a height fraction).
func captionPosition(pos string) (yExpr string, barY float64) {
	switch pos {
	case "top":
		return "h*0.12", 0.10
	case "center":
		return "(h-text_h)/2", 0.46
	default: // bottom
		return "h*0.78", 0.76
	}
}

// backgroundBar synthesizes a highlight bar beneath the caption when the
// style's background asset hint names a recognized shape. The colors
// mirror the asset pack's pre-rendered bars: a dark lower-third for
// "box" hints, a navy strip for "ticker" hints.
func backgroundBar(hint string, barY float64) string {
	var color string
	switch {
	case strings.Contains(hint, "ticker"):
		color = "0x000096@0.8"
	case strings.Contains(hint, "box"):
		color = "black@0.6"
	default:
		return ""
	}
	return fmt.Sprintf("drawbox=x=0:y=ih*%.2f:w=iw:h=ih*0.12:color=%s:t=fill", barY, color)
}

// EscapeText sanitizes caption text for the drawtext filter: quotes are
// removed entirely, colons escaped. Anything else passes through.
func EscapeText(text string) string {
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, `"`, "")
	text = strings.ReplaceAll(text, ":", `\:`)
	return text
}
