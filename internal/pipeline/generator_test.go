package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/procrun"
	"github.com/fluencykaizen/backend/internal/project"
	"github.com/fluencykaizen/backend/internal/whisper"
)

const fakeTranscriptJSON = `{
	"text": " show up on the 30th",
	"language": "en",
	"segments": [
		{"id": 0, "start": 120.0, "end": 124.0, "text": " show up on the 30th",
		 "words": [{"word": "show", "start": 120.1, "end": 120.4}, {"word": "up", "start": 120.4, "end": 120.8}]}
	]
}`

type fakeAnalyzer struct {
	data *caption.ClipData
	err  error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, transcript *whisper.Transcript, videoFileName string) (*caption.ClipData, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.data
	out.VideoFile = videoFileName
	return &out, nil
}

// eventRecorder is a Sink that stores events for later assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) sink(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) hasStage(stage Stage) bool {
	for _, e := range r.all() {
		if e.Stage == stage {
			return true
		}
	}
	return false
}

func (r *eventRecorder) hasType(eventType string) bool {
	for _, e := range r.all() {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func newTestGenerator(t *testing.T, analyzer Analyzer) (*Generator, *project.Store, string) {
	t.Helper()
	root := t.TempDir()
	projectDir := filepath.Join(root, "proj-1")
	if err := os.MkdirAll(filepath.Join(projectDir, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "project.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "assets", "video_001.mp4"), []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}

	store := project.NewStore(root)
	g := NewGenerator(store, analyzer, func() string { return "base" })

	// Fake external tools: extraction touches the wav, transcription
	// writes a fixed whisper document into the temp dir.
	g.extractCommand = func(inputPath, outputPath string) *procrun.Command {
		return procrun.New("sh", "-c", fmt.Sprintf("touch %q", outputPath))
	}
	g.transcribeCommand = func(audioPath, outDir, model string) *procrun.Command {
		script := fmt.Sprintf("cat > %q <<'TRANSCRIPT'\n%s\nTRANSCRIPT", filepath.Join(outDir, "audio.json"), fakeTranscriptJSON)
		return procrun.New("sh", "-c", script)
	}
	g.probeDuration = func(ctx context.Context, path string) (float64, error) {
		return 300, nil
	}

	return g, store, projectDir
}

func validData() *caption.ClipData {
	return &caption.ClipData{
		HookTitle:  caption.HookTitle{JA: "交渉術", EN: "Negotiate"},
		Clip:       caption.ClipWindow{StartTime: 120, EndTime: 165},
		Subtitles:  []caption.Subtitle{{StartTime: 120, EndTime: 123, EN: "show up", JA: "来て", Highlights: []string{}}},
		VocabCards: []caption.VocabCard{},
	}
}

func TestGenerateSuccess(t *testing.T) {
	g, store, projectDir := newTestGenerator(t, &fakeAnalyzer{data: validData()})
	rec := &eventRecorder{}
	run := NewRun()

	data, err := g.Generate(context.Background(), run, "proj-1", "video_001.mp4", rec.sink)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if data.VideoFile != "video_001.mp4" {
		t.Errorf("videoFile = %q", data.VideoFile)
	}
	if data.VideoDuration != 300 {
		t.Errorf("videoDuration = %g, want 300 from probe", data.VideoDuration)
	}

	for _, stage := range []Stage{StageExtracting, StageTranscribing, StageAnalyzing} {
		if !rec.hasStage(stage) {
			t.Errorf("no progress event for stage %s", stage)
		}
	}
	events := rec.all()
	last := events[len(events)-1]
	if last.Type != "complete" || last.Data == nil {
		t.Errorf("last event = %+v, want complete with data", last)
	}

	// Result cached and temp dir removed.
	if _, err := store.LoadCaptions("proj-1", "video_001.mp4"); err != nil {
		t.Errorf("captions not cached: %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, "captions-temp")); !os.IsNotExist(err) {
		t.Errorf("temp dir still present after success")
	}
}

func TestGenerateAnalyzerFailure(t *testing.T) {
	g, store, projectDir := newTestGenerator(t, &fakeAnalyzer{err: errors.New("model exploded")})
	rec := &eventRecorder{}

	_, err := g.Generate(context.Background(), NewRun(), "proj-1", "video_001.mp4", rec.sink)
	if err == nil {
		t.Fatal("expected analyzer failure")
	}
	if !rec.hasType("error") {
		t.Error("no error event emitted")
	}
	if rec.hasType("complete") {
		t.Error("complete event emitted on failure")
	}
	if _, err := store.LoadCaptions("proj-1", "video_001.mp4"); err == nil {
		t.Error("partial result was cached")
	}
	if _, err := os.Stat(filepath.Join(projectDir, "captions-temp")); !os.IsNotExist(err) {
		t.Error("temp dir not cleaned up on failure")
	}
}

func TestGenerateExtractionFailure(t *testing.T) {
	g, _, _ := newTestGenerator(t, &fakeAnalyzer{data: validData()})
	g.extractCommand = func(inputPath, outputPath string) *procrun.Command {
		return procrun.New("sh", "-c", "echo 'no such codec' >&2; exit 1")
	}
	rec := &eventRecorder{}

	_, err := g.Generate(context.Background(), NewRun(), "proj-1", "video_001.mp4", rec.sink)
	if err == nil {
		t.Fatal("expected extraction failure")
	}
	var pErr *procrun.ProcessError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected wrapped *ProcessError, got %v", err)
	}
	if pErr.StderrTail == "" {
		t.Error("stderr tail not captured")
	}
}

func TestGenerateMissingAsset(t *testing.T) {
	g, _, _ := newTestGenerator(t, &fakeAnalyzer{data: validData()})
	rec := &eventRecorder{}

	_, err := g.Generate(context.Background(), NewRun(), "proj-1", "missing.mp4", rec.sink)
	if !errors.Is(err, project.ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

// An abort mid-transcription kills the process, removes the temp dir,
// and never emits a complete event.
func TestGenerateAbortMidTranscription(t *testing.T) {
	g, _, projectDir := newTestGenerator(t, &fakeAnalyzer{data: validData()})
	g.transcribeCommand = func(audioPath, outDir, model string) *procrun.Command {
		return procrun.New("sh", "-c", "sleep 30")
	}

	rec := &eventRecorder{}
	run := NewRun()

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), run, "proj-1", "video_001.mp4", rec.sink)
		done <- err
	}()

	// Wait for the transcription stage to start, then abort.
	deadline := time.After(5 * time.Second)
	for !rec.hasStage(StageTranscribing) {
		select {
		case <-deadline:
			t.Fatal("transcription stage never started")
		case <-time.After(10 * time.Millisecond):
		}
	}
	run.Abort()

	select {
	case err := <-done:
		if !errors.Is(err, ErrAborted) {
			t.Fatalf("err = %v, want ErrAborted", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Generate did not return after abort")
	}

	if rec.hasType("complete") {
		t.Error("complete event emitted after abort")
	}
	if rec.hasType("error") {
		t.Error("abort reported as an error event")
	}
	if _, err := os.Stat(filepath.Join(projectDir, "captions-temp")); !os.IsNotExist(err) {
		t.Error("temp dir not removed after abort")
	}
}

// A failing cache write is logged but does not fail the run.
func TestGenerateCacheWriteFailureNonFatal(t *testing.T) {
	g, _, projectDir := newTestGenerator(t, &fakeAnalyzer{data: validData()})

	// Make the captions directory unwritable by occupying its path
	// with a file.
	if err := os.WriteFile(filepath.Join(projectDir, "captions"), []byte("in the way"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	data, err := g.Generate(context.Background(), NewRun(), "proj-1", "video_001.mp4", rec.sink)
	if err != nil {
		t.Fatalf("cache write failure became fatal: %v", err)
	}
	if data == nil {
		t.Fatal("no data returned")
	}
	if !rec.hasType("complete") {
		t.Error("complete event missing despite in-memory success")
	}
}

func TestRegistryAbort(t *testing.T) {
	reg := NewRegistry()
	run := NewRun()
	reg.Add(run)

	if !reg.Abort(run.ID) {
		t.Error("Abort returned false for registered run")
	}
	if !run.Aborted() {
		t.Error("run not flagged aborted")
	}
	reg.Remove(run.ID)
	if reg.Abort(run.ID) {
		t.Error("Abort returned true for removed run")
	}
	if reg.Abort("unknown-id") {
		t.Error("Abort returned true for unknown run")
	}
}
