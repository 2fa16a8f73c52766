// Package pipeline orchestrates one caption generation run: audio
// extraction, transcription, and analysis, executed strictly in
// sequence with progress streamed to the caller and cooperative
// cancellation checked at every stage boundary.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/ffmpeg"
	"github.com/fluencykaizen/backend/internal/procrun"
	"github.com/fluencykaizen/backend/internal/project"
	"github.com/fluencykaizen/backend/internal/whisper"
)

type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
)

// Event is one generation update streamed to the caller. A run ends
// with exactly one complete or error event, or neither when aborted.
type Event struct {
	Type    string            `json:"type"` // progress, complete, error
	Stage   Stage             `json:"stage,omitempty"`
	Percent int               `json:"percent,omitempty"`
	Message string            `json:"message,omitempty"`
	Data    *caption.ClipData `json:"data,omitempty"`
}

// Sink receives events in order, from the run's goroutine.
type Sink func(Event)

// Analyzer turns a transcript into validated ClipData.
type Analyzer interface {
	Analyze(ctx context.Context, transcript *whisper.Transcript, videoFileName string) (*caption.ClipData, error)
}

// Generator runs caption generation pipelines. The command builders
// and the duration probe are fields so tests can substitute fakes for
// the external tools.
type Generator struct {
	projects     *project.Store
	analyzer     Analyzer
	whisperModel func() string

	extractCommand    func(inputPath, outputPath string) *procrun.Command
	transcribeCommand func(audioPath, outDir, model string) *procrun.Command
	probeDuration     func(ctx context.Context, path string) (float64, error)
}

func NewGenerator(projects *project.Store, analyzer Analyzer, whisperModel func() string) *Generator {
	return &Generator{
		projects:          projects,
		analyzer:          analyzer,
		whisperModel:      whisperModel,
		extractCommand:    ffmpeg.ExtractAudioCommand,
		transcribeCommand: whisper.TranscribeCommand,
		probeDuration:     ffmpeg.ProbeDuration,
	}
}

// Generate runs the full pipeline for one asset. On success the result
// is cached and returned; on failure a single error event is emitted
// and the error returned; on abort it returns ErrAborted with no
// further events. The temp directory is removed on every exit path,
// and no partially built ClipData ever reaches the caller.
func (g *Generator) Generate(ctx context.Context, run *Run, projectID, assetName string, emit Sink) (*caption.ClipData, error) {
	assetPath, err := g.projects.ResolveAsset(projectID, assetName)
	if err != nil {
		emit(Event{Type: "error", Message: err.Error()})
		return nil, err
	}

	// Progress stops the moment the run is aborted.
	send := func(e Event) {
		if !run.Aborted() {
			emit(e)
		}
	}

	fail := func(err error) (*caption.ClipData, error) {
		if run.Aborted() {
			return nil, ErrAborted
		}
		log.Printf("[pipeline] run %s failed: %v", run.ID, err)
		emit(Event{Type: "error", Message: err.Error()})
		return nil, err
	}

	tempDir := g.projects.TempDir(projectID)
	defer func() {
		run.KillProcesses()
		if err := os.RemoveAll(tempDir); err != nil {
			log.Printf("[pipeline] failed to remove temp dir %s: %v", tempDir, err)
		}
	}()

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fail(fmt.Errorf("create temp dir: %w", err))
	}

	// Stage 1: extract audio.
	send(Event{Type: "progress", Stage: StageExtracting, Percent: 10, Message: "Extracting audio..."})

	audioPath := filepath.Join(tempDir, "audio.wav")
	extract := g.extractCommand(assetPath, audioPath)
	run.track(extract)
	if err := extract.Run(ctx); err != nil {
		return fail(fmt.Errorf("extract audio: %w", err))
	}
	if run.Aborted() {
		return nil, ErrAborted
	}
	send(Event{Type: "progress", Stage: StageExtracting, Percent: 25, Message: "Audio extracted"})

	// Stage 2: transcribe.
	send(Event{Type: "progress", Stage: StageTranscribing, Percent: 30, Message: "Transcribing with Whisper..."})

	transcribe := g.transcribeCommand(audioPath, tempDir, g.whisperModel())
	lastPercent := 30
	transcribe.OnStderrLine = func(line string) {
		pct, ok := whisper.ParseProgress(line)
		if !ok {
			return
		}
		// Map whisper's 0-100 into this stage's 30-55 band.
		mapped := 30 + pct*25/100
		if mapped > lastPercent && mapped < 55 {
			lastPercent = mapped
			send(Event{Type: "progress", Stage: StageTranscribing, Percent: mapped, Message: "Whisper processing..."})
		}
	}
	run.track(transcribe)
	if err := transcribe.Run(ctx); err != nil {
		return fail(fmt.Errorf("transcribe: %w", err))
	}
	if run.Aborted() {
		return nil, ErrAborted
	}
	send(Event{Type: "progress", Stage: StageTranscribing, Percent: 55, Message: "Transcription complete"})

	transcript, err := whisper.LoadTranscript(tempDir, "audio")
	if err != nil {
		return fail(err)
	}

	// Stage 3: analyze.
	send(Event{Type: "progress", Stage: StageAnalyzing, Percent: 60, Message: "Analyzing transcript..."})

	data, err := g.analyzer.Analyze(ctx, transcript, assetName)
	if err != nil {
		return fail(fmt.Errorf("analyze: %w", err))
	}
	if run.Aborted() {
		return nil, ErrAborted
	}

	if duration, err := g.probeDuration(ctx, assetPath); err == nil {
		data.VideoDuration = duration
	} else if end := transcript.EndTime(); end > 0 {
		log.Printf("[pipeline] ffprobe failed (%v), using transcript duration %.1fs", err, end)
		data.VideoDuration = end
	}

	send(Event{Type: "progress", Stage: StageAnalyzing, Percent: 90, Message: "Analysis complete"})

	// Cache write failure must not hold the result hostage: the caller
	// still gets the in-memory ClipData.
	if err := g.projects.SaveCaptions(projectID, assetName, data); err != nil {
		log.Printf("[pipeline] WARNING: failed to cache captions: %v", err)
	}

	send(Event{Type: "complete", Data: data})
	return data, nil
}
