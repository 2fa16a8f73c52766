package whisper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadTranscript reads the transcription output from dir. The whisper
// CLI names its output after the input audio file (audio.wav ->
// audio.json); older runs wrote transcript.json, so that name is tried
// as a fallback.
func LoadTranscript(dir, audioBase string) (*Transcript, error) {
	candidates := []string{
		filepath.Join(dir, audioBase+".json"),
		filepath.Join(dir, "transcript.json"),
	}

	var lastErr error
	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		var transcript Transcript
		if err := json.Unmarshal(raw, &transcript); err != nil {
			return nil, fmt.Errorf("parse transcript %s: %w", path, err)
		}
		return &transcript, nil
	}

	return nil, fmt.Errorf("could not find whisper output file in %s: %w", dir, lastErr)
}
