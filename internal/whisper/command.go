package whisper

import (
	"regexp"
	"strconv"

	"github.com/fluencykaizen/backend/internal/procrun"
)

// DefaultModel is the transcription model size used when no override
// is configured.
const DefaultModel = "base"

// TranscribeCommand builds the openai-whisper CLI invocation for one
// audio file. Output is a JSON transcript with word-level timestamps,
// written to outDir under the audio file's base name.
func TranscribeCommand(audioPath, outDir, model string) *procrun.Command {
	if model == "" {
		model = DefaultModel
	}
	return procrun.New("python3",
		"-m", "whisper",
		audioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
	)
}

// whisper writes a tqdm progress bar to stderr, e.g. " 45%|████▌ ...".
var progressRe = regexp.MustCompile(`(\d{1,3})%\|`)

// ParseProgress extracts the percentage from a whisper stderr line.
// This is a coarse heuristic over an unstable output format; callers
// should treat it as advisory only.
func ParseProgress(line string) (int, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}
