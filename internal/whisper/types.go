package whisper

// Transcript is the JSON document produced by the openai-whisper CLI
// (--output_format json). Times are absolute seconds within the source
// media. It lives only for the duration of one generation run; only
// the derived ClipData is persisted.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Segment is a contiguous span of transcribed speech. Words is only
// populated when transcription ran with word timestamps enabled.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Word carries per-word timing within a segment.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability,omitempty"`
}

// HasWordTimestamps reports whether any segment carries word-level
// timing. Subtitle boundaries are placed on word timestamps when
// available, otherwise on segment ranges.
func (t *Transcript) HasWordTimestamps() bool {
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 {
			return true
		}
	}
	return false
}

// EndTime returns the end of the last segment, or 0 for an empty
// transcript. Used as a duration fallback when ffprobe fails.
func (t *Transcript) EndTime() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}
