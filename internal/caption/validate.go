package caption

import (
	"fmt"
	"strings"
)

// ValidationError describes the first structural or numeric violation
// found in a candidate ClipData. The reason is fed back to the model
// verbatim as correction context during analysis retries.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a candidate ClipData structurally: required fields,
// non-empty titles and subtitles, typed vocab cards, and the clip
// duration window. It stops at the first violation and does not judge
// content quality.
func Validate(data *ClipData) error {
	if strings.TrimSpace(data.VideoFile) == "" {
		return validationErrorf("Missing videoFile")
	}
	if data.HookTitle.JA == "" || data.HookTitle.EN == "" {
		return validationErrorf("Missing hookTitle")
	}
	if data.Clip.StartTime < 0 || data.Clip.EndTime <= 0 {
		return validationErrorf("Missing or invalid clip timestamps")
	}
	if len(data.Subtitles) == 0 {
		return validationErrorf("Missing subtitles")
	}
	if data.VocabCards == nil {
		return validationErrorf("vocabCards must be an array")
	}

	duration := data.Clip.Duration()
	if duration < MinClipDuration || duration > MaxClipDuration {
		return validationErrorf(
			"Clip duration %gs is outside %g-%gs range. Adjust clip startTime/endTime.",
			duration, MinClipDuration, MaxClipDuration,
		)
	}

	for i, sub := range data.Subtitles {
		if sub.StartTime < 0 || sub.EndTime < 0 || sub.EndTime < sub.StartTime {
			return validationErrorf("Invalid subtitle segment %d: startTime=%g endTime=%g", i, sub.StartTime, sub.EndTime)
		}
		if sub.Highlights == nil {
			return validationErrorf("Invalid subtitle segment %d: missing highlights array", i)
		}
	}

	for i, card := range data.VocabCards {
		if card.TriggerTime < 0 || card.Duration <= 0 {
			return validationErrorf("Invalid vocab card %d: triggerTime=%g duration=%g", i, card.TriggerTime, card.Duration)
		}
		if card.Phrase == "" || card.Literal == "" || card.Nuance == "" || card.Category == "" {
			return validationErrorf("Invalid vocab card %d: category, phrase, literal and nuance are required", i)
		}
	}

	return nil
}
