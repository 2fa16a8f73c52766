package ffmpeg

import "github.com/fluencykaizen/backend/internal/procrun"

// ExtractAudioCommand builds the ffmpeg invocation that extracts the
// audio track of a media file as mono 16kHz PCM WAV, the input format
// whisper expects.
func ExtractAudioCommand(inputPath, outputPath string) *procrun.Command {
	return procrun.New("ffmpeg",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", outputPath,
	)
}
