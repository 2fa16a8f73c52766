package caption

import (
	"testing"

	"github.com/fluencykaizen/backend/internal/whisper"
)

func wordTranscript() *whisper.Transcript {
	return &whisper.Transcript{
		Segments: []whisper.Segment{
			{
				Start: 1.0, End: 2.0, Text: " show up",
				Words: []whisper.Word{
					{Word: "show", Start: 1.2, End: 1.4},
					{Word: "up", Start: 1.4, End: 1.7},
				},
			},
		},
	}
}

func TestBackfillFromWordTimestamps(t *testing.T) {
	data := &ClipData{
		Subtitles: []Subtitle{
			{StartTime: 1.2, EndTime: 1.8, EN: "", JA: "来てください"},
		},
	}

	BackfillEnglish(data, wordTranscript())

	if got := data.Subtitles[0].EN; got != "show up" {
		t.Fatalf("backfilled EN = %q, want %q", got, "show up")
	}
}

func TestBackfillNeverOverwrites(t *testing.T) {
	data := &ClipData{
		Subtitles: []Subtitle{
			{StartTime: 1.2, EndTime: 1.8, EN: "original text"},
			{StartTime: 1.2, EndTime: 1.8, EN: ""},
		},
	}

	BackfillEnglish(data, wordTranscript())

	if data.Subtitles[0].EN != "original text" {
		t.Errorf("non-blank subtitle overwritten: %q", data.Subtitles[0].EN)
	}
	if data.Subtitles[1].EN != "show up" {
		t.Errorf("blank subtitle not filled: %q", data.Subtitles[1].EN)
	}
}

func TestBackfillSegmentFallback(t *testing.T) {
	transcript := &whisper.Transcript{
		Segments: []whisper.Segment{
			{Start: 10, End: 14, Text: " like never before "},
			{Start: 14, End: 18, Text: " something else"},
		},
	}
	data := &ClipData{
		Subtitles: []Subtitle{
			{StartTime: 10, EndTime: 13, EN: "   "},
		},
	}

	BackfillEnglish(data, transcript)

	if got := data.Subtitles[0].EN; got != "like never before" {
		t.Fatalf("segment fallback EN = %q, want %q", got, "like never before")
	}
}

func TestBackfillSkipsWhenNothingBlank(t *testing.T) {
	data := &ClipData{
		Subtitles: []Subtitle{
			{StartTime: 1.2, EndTime: 1.8, EN: "already here"},
		},
	}

	BackfillEnglish(data, wordTranscript())

	if data.Subtitles[0].EN != "already here" {
		t.Fatalf("subtitle changed: %q", data.Subtitles[0].EN)
	}
}

func TestBackfillNilTranscript(t *testing.T) {
	data := &ClipData{
		Subtitles: []Subtitle{{StartTime: 1, EndTime: 2, EN: ""}},
	}

	BackfillEnglish(data, nil)

	if data.Subtitles[0].EN != "" {
		t.Fatalf("subtitle changed without transcript: %q", data.Subtitles[0].EN)
	}
}

func TestBackfillNoWordsInRange(t *testing.T) {
	data := &ClipData{
		Subtitles: []Subtitle{
			{StartTime: 50, EndTime: 55, EN: ""},
		},
	}

	BackfillEnglish(data, wordTranscript())

	// No word midpoint falls in [50, 55]; the field stays blank rather
	// than receiving unrelated text.
	if data.Subtitles[0].EN != "" {
		t.Fatalf("subtitle filled with out-of-range text: %q", data.Subtitles[0].EN)
	}
}
