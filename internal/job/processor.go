// Package job runs one analysis document end to end: plan, render segments,
// sequence and finalize, thumbnail. One document in, one video (and
// optionally one thumbnail) out.
package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/analysis"
	"github.com/naki0227/nue/internal/assets"
	"github.com/naki0227/nue/internal/config"
	"github.com/naki0227/nue/internal/ffmpeg"
	"github.com/naki0227/nue/internal/logging"
	"github.com/naki0227/nue/internal/timeline"
	"github.com/naki0227/nue/pkg/util"
)

// Engine is the external media capability the processor drives. It is
// stateless from the processor's point of view: inputs and a description
// in, an artifact or a diagnostic error out.
type Engine interface {
	RenderSegment(ctx context.Context, job timeline.SegmentJob) error
	Finalize(ctx context.Context, job ffmpeg.FinalizeJob) error
	Thumbnail(ctx context.Context, job ffmpeg.ThumbnailJob) error
	HasAudio(ctx context.Context, path string) (bool, error)
}

// Recorder persists job outcomes. Nil-safe from the processor's side via
// the noop implementation.
type Recorder interface {
	Record(rec Record) error
}

// Record is one processed document's outcome.
type Record struct {
	ID         string
	Source     string
	Document   string
	Output     string
	Status     string // done, failed
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NoopRecorder discards records.
type NoopRecorder struct{}

func (NoopRecorder) Record(Record) error { return nil }

// Processor renders documents sequentially. Segments are rendered
// one at a time in cut order; the engine invocations are the only
// suspension points.
type Processor struct {
	cfg      *config.Config
	logger   zerolog.Logger
	engine   Engine
	planner  *timeline.Planner
	library  *assets.Library
	recorder Recorder
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(cfg *config.Config, logger zerolog.Logger, engine Engine, library *assets.Library, recorder Recorder) *Processor {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Processor{
		cfg:    cfg,
		logger: logger.With().Str("component", "processor").Logger(),
		engine: engine,
		planner: timeline.NewPlanner(logger, timeline.Options{
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
		}),
		library:  library,
		recorder: recorder,
	}
}

// ProcessFile runs one analysis document through the full pipeline. The
// returned error is terminal for this document only; callers keep
// watching.
func (p *Processor) ProcessFile(ctx context.Context, docPath string) error {
	jobID := uuid.NewString()[:8]
	log := p.logger.With().Str("job_id", jobID).Logger()

	logging.Event(log, "process_start", docPath).Msg("processing analysis document")

	started := time.Now()
	rec := Record{
		ID:        jobID,
		Document:  docPath,
		StartedAt: started,
	}

	err := p.run(ctx, log, docPath, jobID, &rec)

	rec.FinishedAt = time.Now()
	if err != nil {
		rec.Status = "failed"
		rec.Error = err.Error()
		logging.FailureEvent(log, "process_error", docPath).Err(err).Msg("job failed")
	} else {
		rec.Status = "done"
		logging.Event(log, "process_complete", rec.Output).
			Dur("elapsed", rec.FinishedAt.Sub(started)).
			Msg("job complete")
	}

	if rerr := p.recorder.Record(rec); rerr != nil {
		log.Warn().Err(rerr).Msg("failed to record job outcome")
	}

	return err
}

func (p *Processor) run(ctx context.Context, log zerolog.Logger, docPath, jobID string, rec *Record) error {
	doc, err := analysis.Load(docPath)
	if err != nil {
		return err
	}

	source := filepath.Join(p.cfg.Dirs.Raw, doc.OriginalFilename)
	rec.Source = source
	if !util.FileExists(source) {
		return &MissingSourceError{Path: source}
	}

	logging.Event(log, "video_found", source).Int("cuts", len(doc.Cuts)).Msg("source located")

	// Scratch is namespaced by job id so two documents processed
	// concurrently can never collide, and removed on every exit path.
	scratch := filepath.Join(p.cfg.Dirs.Scratch, jobID)
	if err := util.EnsureDir(scratch); err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn().Err(err).Str("path", scratch).Msg("failed to remove scratch dir")
		}
	}()

	mainErr := p.renderAndFinalize(ctx, log, doc, source, scratch, rec)

	// The thumbnail stage samples the original source directly and runs
	// regardless of how the main pipeline fared.
	p.thumbnail(ctx, log, doc, source)

	return mainErr
}

func (p *Processor) renderAndFinalize(ctx context.Context, log zerolog.Logger, doc *analysis.Document, source, scratch string, rec *Record) error {
	plan, err := p.planner.Plan(doc, source, scratch)
	if err != nil {
		return err
	}
	if len(plan.Segments) == 0 {
		return fmt.Errorf("no retained cuts in %s", rec.Document)
	}

	mix, err := p.buildMix(ctx, log, plan, doc)
	if err != nil {
		return err
	}

	for _, seg := range plan.Segments {
		logging.Event(log, "transcode_start", seg.Output).Int("segment", seg.Index).Msg("rendering segment")
		if err := p.engine.RenderSegment(ctx, seg); err != nil {
			logging.FailureEvent(log, "transcode_failed", seg.Output).Int("segment", seg.Index).Err(err).Msg("segment render failed")
			return &SegmentError{Index: seg.Index, Output: seg.Output, Err: err}
		}
		logging.Event(log, "transcode_complete", seg.Output).Int("segment", seg.Index).Msg("segment rendered")
	}

	output := filepath.Join(p.cfg.Dirs.Output, util.BaseName(doc.OriginalFilename)+"_final.mp4")
	rec.Output = output

	segments := make([]string, len(plan.Segments))
	for i, seg := range plan.Segments {
		segments[i] = seg.Output
	}

	err = p.engine.Finalize(ctx, ffmpeg.FinalizeJob{
		Segments: segments,
		Mix:      mix,
		ListDir:  scratch,
		Output:   output,
	})
	if err != nil {
		logging.FailureEvent(log, "finalize_failed", output).Err(err).Msg("finalize failed")
		return &FinalizeError{Err: err}
	}

	logging.Event(log, "finalize_complete", output).Float64("duration", mix.Total).Msg("final video written")
	return nil
}

func (p *Processor) buildMix(ctx context.Context, log zerolog.Logger, plan *timeline.Plan, doc *analysis.Document) (*timeline.MixPlan, error) {
	bgm := p.library.ResolveBGM(doc.BGMPath, p.cfg.Audio.FallbackBGM)
	if bgm != "" {
		// A background track without an audio stream would poison the
		// mix graph; drop it instead.
		ok, err := p.engine.HasAudio(ctx, bgm)
		if err != nil || !ok {
			log.Warn().Str("path", bgm).Err(err).Msg("background track unusable, dropped")
			bgm = ""
		}
	}

	mix, err := timeline.BuildMixPlan(log, plan, doc, p.library, timeline.MixOptions{
		MainGain: p.cfg.Audio.MainGain,
		BGMGain:  p.cfg.Audio.BGMGain,
		SEGain:   p.cfg.Audio.SEGain,
		FadeOut:  p.cfg.Audio.FadeOut,
		BGMPath:  bgm,
	})
	if err != nil {
		return nil, err
	}

	logging.Event(log, "mix_plan_built", "").
		Int("cues", len(mix.Cues)).
		Bool("bgm", mix.BGM != "").
		Float64("total", mix.Total).
		Msg("audio mix planned")

	return mix, nil
}

// thumbnail is isolated: any failure is logged and swallowed.
func (p *Processor) thumbnail(ctx context.Context, log zerolog.Logger, doc *analysis.Document, source string) {
	if doc.Thumbnail == nil {
		return
	}

	output := filepath.Join(p.cfg.Dirs.Output, util.BaseName(doc.OriginalFilename)+"_thumb.jpg")

	ts, err := timeline.ParseTimestamp(doc.Thumbnail.Timestamp)
	if err != nil {
		terr := &ThumbnailError{Err: err}
		logging.FailureEvent(log, "thumbnail_failed", output).Err(terr).Msg("bad thumbnail timestamp")
		return
	}

	err = p.engine.Thumbnail(ctx, ffmpeg.ThumbnailJob{
		Source:    source,
		Timestamp: ts,
		Text:      doc.Thumbnail.Text,
		Color:     doc.Thumbnail.Color,
		Output:    output,
	})
	if err != nil {
		terr := &ThumbnailError{Err: err}
		logging.FailureEvent(log, "thumbnail_failed", output).Err(terr).Msg("thumbnail extraction failed")
		return
	}

	logging.Event(log, "thumbnail_complete", output).Msg("thumbnail written")
}
