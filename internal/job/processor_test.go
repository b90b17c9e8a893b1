package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/naki0227/nue/internal/assets"
	"github.com/naki0227/nue/internal/config"
	"github.com/naki0227/nue/internal/ffmpeg"
	"github.com/naki0227/nue/internal/timeline"
)

// fakeEngine records calls and fails on demand.
type fakeEngine struct {
	rendered    []int
	finalized   *ffmpeg.FinalizeJob
	thumbnailed *ffmpeg.ThumbnailJob

	failSegment  int // index to fail on, -1 for never
	failFinalize bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failSegment: -1}
}

func (f *fakeEngine) RenderSegment(ctx context.Context, job timeline.SegmentJob) error {
	if job.Index == f.failSegment {
		return fmt.Errorf("engine exploded on segment %d", job.Index)
	}
	f.rendered = append(f.rendered, job.Index)
	return nil
}

func (f *fakeEngine) Finalize(ctx context.Context, job ffmpeg.FinalizeJob) error {
	f.finalized = &job
	if f.failFinalize {
		return fmt.Errorf("concat failed")
	}
	return nil
}

func (f *fakeEngine) Thumbnail(ctx context.Context, job ffmpeg.ThumbnailJob) error {
	f.thumbnailed = &job
	return nil
}

func (f *fakeEngine) HasAudio(ctx context.Context, path string) (bool, error) {
	return true, nil
}

// captureRecorder keeps the last record.
type captureRecorder struct {
	last *Record
}

func (c *captureRecorder) Record(rec Record) error {
	c.last = &rec
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load(filepath.Join(root, "no-such-config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Dirs = config.DirConfig{
		Raw:     filepath.Join(root, "raw"),
		Inbox:   filepath.Join(root, "json"),
		Output:  filepath.Join(root, "output"),
		Scratch: filepath.Join(root, "scratch"),
		Assets:  filepath.Join(root, "assets"),
		Data:    root,
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func writeDoc(t *testing.T, cfg *config.Config, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.Dirs.Inbox, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeSource(t *testing.T, cfg *config.Config, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(cfg.Dirs.Raw, name), []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
}

const twoCutDoc = `{
	"original_filename": "in.mp4",
	"cuts": [
		{"start_time": "00:00:00", "end_time": "00:00:05", "filter": "none"},
		{"start_time": "00:00:05", "end_time": "00:00:10", "filter": "none", "transition_type": "fade"}
	],
	"thumbnail": {"timestamp": "00:00:03", "text": "WOW"}
}`

func newTestProcessor(cfg *config.Config, engine Engine, rec Recorder) *Processor {
	library := assets.NewLibrary(cfg.Dirs.Assets, zerolog.Nop())
	return NewProcessor(cfg, zerolog.Nop(), engine, library, rec)
}

func scratchEntries(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.Dirs.Scratch)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestProcessFileSuccess(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	rec := &captureRecorder{}
	p := newTestProcessor(cfg, engine, rec)

	writeSource(t, cfg, "in.mp4")
	docPath := writeDoc(t, cfg, "in.mp4.json", twoCutDoc)

	if err := p.ProcessFile(context.Background(), docPath); err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(engine.rendered) != 2 || engine.rendered[0] != 0 || engine.rendered[1] != 1 {
		t.Errorf("segments rendered = %v, want [0 1]", engine.rendered)
	}

	if engine.finalized == nil {
		t.Fatal("finalize was not called")
	}
	if len(engine.finalized.Segments) != 2 {
		t.Errorf("finalize got %d segments", len(engine.finalized.Segments))
	}
	if got := engine.finalized.Mix.Total; got != 9.5 {
		t.Errorf("finalize total = %v, want 9.5", got)
	}
	if engine.finalized.Mix.HasMix() {
		t.Error("no bgm and no events: mix should be skipped")
	}
	if filepath.Base(engine.finalized.Output) != "in_final.mp4" {
		t.Errorf("output = %q", engine.finalized.Output)
	}

	if engine.thumbnailed == nil {
		t.Fatal("thumbnail was not extracted")
	}
	if filepath.Base(engine.thumbnailed.Output) != "in_thumb.jpg" {
		t.Errorf("thumbnail output = %q", engine.thumbnailed.Output)
	}

	if rec.last == nil || rec.last.Status != "done" {
		t.Errorf("record = %+v, want status done", rec.last)
	}

	if n := scratchEntries(t, cfg); n != 0 {
		t.Errorf("scratch not cleaned up: %d entries left", n)
	}
}

func TestProcessFileSegmentFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	engine.failSegment = 0
	rec := &captureRecorder{}
	p := newTestProcessor(cfg, engine, rec)

	writeSource(t, cfg, "in.mp4")
	docPath := writeDoc(t, cfg, "in.mp4.json", twoCutDoc)

	err := p.ProcessFile(context.Background(), docPath)

	var serr *SegmentError
	if !errors.As(err, &serr) {
		t.Fatalf("error is %T, want *SegmentError", err)
	}
	if serr.Index != 0 {
		t.Errorf("failed segment index = %d, want 0", serr.Index)
	}

	if len(engine.rendered) != 0 {
		t.Errorf("remaining segments must not be attempted, rendered: %v", engine.rendered)
	}
	if engine.finalized != nil {
		t.Error("finalize must not run after a segment failure")
	}
	if engine.thumbnailed == nil {
		t.Error("thumbnail stage is independent and should still run")
	}
	if rec.last == nil || rec.last.Status != "failed" {
		t.Errorf("record = %+v, want status failed", rec.last)
	}

	// Cleanup happens on failure paths too.
	if n := scratchEntries(t, cfg); n != 0 {
		t.Errorf("scratch leaked on failure: %d entries left", n)
	}
}

func TestProcessFileFinalizeFailure(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	engine.failFinalize = true
	p := newTestProcessor(cfg, engine, &captureRecorder{})

	writeSource(t, cfg, "in.mp4")
	docPath := writeDoc(t, cfg, "in.mp4.json", twoCutDoc)

	err := p.ProcessFile(context.Background(), docPath)

	var ferr *FinalizeError
	if !errors.As(err, &ferr) {
		t.Fatalf("error is %T, want *FinalizeError", err)
	}
	if engine.thumbnailed == nil {
		t.Error("thumbnail stage should still run after finalize failure")
	}
	if n := scratchEntries(t, cfg); n != 0 {
		t.Errorf("scratch leaked on failure: %d entries left", n)
	}
}

func TestProcessFileMissingSource(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	p := newTestProcessor(cfg, engine, nil)

	docPath := writeDoc(t, cfg, "in.mp4.json", twoCutDoc)

	err := p.ProcessFile(context.Background(), docPath)

	var merr *MissingSourceError
	if !errors.As(err, &merr) {
		t.Fatalf("error is %T, want *MissingSourceError", err)
	}
	if len(engine.rendered) != 0 || engine.finalized != nil || engine.thumbnailed != nil {
		t.Error("nothing may render when the source is missing")
	}
}

func TestProcessFileMalformedDocument(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	p := newTestProcessor(cfg, engine, nil)

	docPath := writeDoc(t, cfg, "bad.json", `{"cuts": []}`)

	if err := p.ProcessFile(context.Background(), docPath); err == nil {
		t.Fatal("expected error for malformed document")
	}
	if len(engine.rendered) != 0 || engine.finalized != nil {
		t.Error("no render jobs may be issued for a malformed document")
	}
}

func TestProcessFileBadCutTimestamp(t *testing.T) {
	cfg := testConfig(t)
	engine := newFakeEngine()
	p := newTestProcessor(cfg, engine, nil)

	writeSource(t, cfg, "in.mp4")
	docPath := writeDoc(t, cfg, "in.mp4.json", `{
		"original_filename": "in.mp4",
		"cuts": [{"start_time": "garbage", "end_time": "5", "filter": "none"}]
	}`)

	err := p.ProcessFile(context.Background(), docPath)

	var terr *timeline.TimestampError
	if !errors.As(err, &terr) {
		t.Fatalf("error is %T, want *timeline.TimestampError", err)
	}
	if len(engine.rendered) != 0 {
		t.Error("no segments may render after a timestamp error")
	}
	if n := scratchEntries(t, cfg); n != 0 {
		t.Errorf("scratch leaked: %d entries left", n)
	}
}
