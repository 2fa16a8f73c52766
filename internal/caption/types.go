package caption

// ClipData is the final caption document for one source asset: a selected
// 30-60s highlight window, bilingual subtitles, and vocabulary callouts.
// It is cached as a JSON file keyed by the asset's base name.
type ClipData struct {
	VideoFile     string     `json:"videoFile"`
	VideoDuration float64    `json:"videoDuration,omitempty"`
	HookTitle     HookTitle  `json:"hookTitle"`
	Clip          ClipWindow `json:"clip"`
	Subtitles     []Subtitle `json:"subtitles"`
	VocabCards    []VocabCard `json:"vocabCards"`
}

// HookTitle is a short bilingual title shown at the top of the clip.
type HookTitle struct {
	JA string `json:"ja"`
	EN string `json:"en"`
}

// ClipWindow is the selected highlight range in absolute seconds
// within the source media.
type ClipWindow struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Duration returns the clip length in seconds.
func (c ClipWindow) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Subtitle is one bilingual caption segment. Highlights are substrings
// of the Japanese line to be emphasized during rendering.
type Subtitle struct {
	StartTime  float64  `json:"startTime"`
	EndTime    float64  `json:"endTime"`
	EN         string   `json:"en"`
	JA         string   `json:"ja"`
	Highlights []string `json:"highlights"`
}

// VocabCard is a vocabulary callout displayed for Duration seconds
// starting at TriggerTime.
type VocabCard struct {
	TriggerTime float64 `json:"triggerTime"`
	Duration    float64 `json:"duration"`
	Category    string  `json:"category"`
	Phrase      string  `json:"phrase"`
	Literal     string  `json:"literal"`
	Nuance      string  `json:"nuance"`
}

// Limits are the hard character ceilings applied to generated text.
type Limits struct {
	HookTitleJA int
	HookTitleEN int
	SubtitleEN  int
}

// DefaultLimits matches the rendering layout: titles overflow the safe
// area beyond these sizes.
var DefaultLimits = Limits{
	HookTitleJA: 8,
	HookTitleEN: 30,
	SubtitleEN:  25,
}

// Clip duration bounds in seconds for short-form output.
const (
	MinClipDuration = 30.0
	MaxClipDuration = 60.0
)
