package caption

import (
	"log"
	"strings"
)

// EnforceLimits truncates over-length title and subtitle text to the
// configured ceilings, mutating data in place. Truncation is lossy by
// design: it is the last line of defense after the model ignored the
// limits in its instructions, not a quality mechanism. Every cut is
// logged with the original value.
//
// Japanese fields are counted in runes and cut directly. English
// fields are cut to limit-3, backed up to the last space so no word is
// split, and suffixed with an ellipsis. Already-compliant data is left
// unchanged, so applying EnforceLimits twice is a no-op.
func EnforceLimits(data *ClipData, limits Limits) {
	if ja := []rune(data.HookTitle.JA); len(ja) > limits.HookTitleJA {
		log.Printf("[caption] hookTitle.ja truncated: %q (%d chars) -> %d chars",
			data.HookTitle.JA, len(ja), limits.HookTitleJA)
		data.HookTitle.JA = string(ja[:limits.HookTitleJA])
	}

	if len([]rune(data.HookTitle.EN)) > limits.HookTitleEN {
		log.Printf("[caption] hookTitle.en truncated: %q (%d chars) -> %d chars",
			data.HookTitle.EN, len([]rune(data.HookTitle.EN)), limits.HookTitleEN)
		data.HookTitle.EN = truncateAtWord(data.HookTitle.EN, limits.HookTitleEN)
	}

	for i := range data.Subtitles {
		sub := &data.Subtitles[i]
		if len([]rune(sub.EN)) > limits.SubtitleEN {
			log.Printf("[caption] subtitle %d EN truncated: %q (%d chars)", i, sub.EN, len([]rune(sub.EN)))
			sub.EN = truncateAtWord(sub.EN, limits.SubtitleEN)
		}
	}
}

// truncateAtWord cuts s to at most limit characters ending in "...",
// backing up to the previous space so the cut never splits a word.
func truncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if limit <= 3 {
		return string(runes[:limit])
	}
	trimmed := string(runes[:limit-3])
	if idx := strings.LastIndex(trimmed, " "); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed + "..."
}
