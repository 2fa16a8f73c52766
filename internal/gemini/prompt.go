package gemini

import (
	"fmt"
	"strings"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/whisper"
)

// buildTranscriptText renders the transcript for the prompt. With
// word-level timing every word carries its start timestamp in
// brackets so the model can place subtitle boundaries on real word
// times; otherwise segments are listed with their ranges.
func buildTranscriptText(transcript *whisper.Transcript) string {
	var b strings.Builder
	if transcript.HasWordTimestamps() {
		for i, seg := range transcript.Segments {
			if i > 0 {
				b.WriteByte('\n')
			}
			for j, w := range seg.Words {
				if j > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprintf(&b, "%s[%.2f]", strings.TrimSpace(w.Word), w.Start)
			}
		}
		return b.String()
	}
	for i, seg := range transcript.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.1fs - %.1fs] %s", seg.Start, seg.End, strings.TrimSpace(seg.Text))
	}
	return b.String()
}

func buildPrompt(transcript *whisper.Transcript, videoFileName string, limits caption.Limits) string {
	transcriptText := buildTranscriptText(transcript)

	timingRules := `   Split at natural speech pauses and phrase boundaries — never mid-phrase.`
	if transcript.HasWordTimestamps() {
		timingRules = `   WORD-LEVEL TIMESTAMPS: Each word in the transcript has a bracketed timestamp (e.g. "hello[1.24] world[1.56]").
   - Use these EXACT timestamps for subtitle startTime (first word's timestamp) and endTime (last word's timestamp + ~0.3s).
   - Split subtitles at gaps of >0.3 seconds between consecutive words — these are natural speech pauses.
   - Do NOT guess or interpolate timestamps. Every subtitle boundary must align with an actual word timestamp from the transcript.`
	}

	return fmt.Sprintf(`You are a professional video editor specializing in Business English educational content for Japanese learners.

## Task
Analyze this bilingual (English/Japanese mixed) video transcript and produce a JSON output for a %.0f-%.0f second short-form video clip.

## Transcript
%s

## Instructions

1. **Select Clip**: Choose the best %.0f-%.0f second segment that:
   - Contains clear, useful business English phrases
   - Has good bilingual balance (EN + JP)
   - Would engage viewers on TikTok/YouTube Shorts

TIMESTAMP RULE: All timestamps (subtitle startTime/endTime, vocabCard triggerTime) must use ABSOLUTE timestamps matching the input transcript — NOT relative to clip start. If your selected clip starts at 120s, the first subtitle startTime should be ~120, not 0.

2. **Subtitles**: For each 2-4 second segment within the clip:
   MOST IMPORTANT RULE: The English text MUST be the EXACT words spoken in the video at that timestamp. Do NOT paraphrase, rearrange, or invent text. Use the transcript to extract the actual spoken words for each time range.
   Each English subtitle MUST be <= %d characters (including spaces). Count before outputting.
   - Good examples: "show up on the 30th" (19), "like never before" (17), "ladies and gentlemen" (20)
   - If a phrase exceeds %d characters, split at the nearest natural pause
   - Provide Japanese translation of what was said
   - Identify 1-2 key business words/phrases in the Japanese line for highlighting (yellow color)
%s

3. **Vocabulary Cards**: Extract 3-5 important business English phrases:
   - phrase: The English expression exactly as said
   - literal: Word-by-word translation to Japanese
   - nuance: Contextual meaning and when/how to use
   - category: e.g. "ビジネス英語", "スラング", "表現"
   - Place cards strategically throughout the clip (don't all appear at once)

4. **Hook Title**: Create a catchy 1-line title in both EN and JA:
   CRITICAL CHARACTER LIMITS — count characters before outputting:
   - Japanese: STRICTLY <= %d characters total. Count each character (kanji, kana, punctuation) as 1.
     Good: "英語で交渉術" (6 chars), "会議の表現" (5 chars)
     Bad: "ビジネス英語の重要フレーズ" (13 chars — TOO LONG)
   - English: <= %d characters, benefit-focused, max 6 words
     Good: "Negotiate Like a Native" (23 chars)
     Bad: "Essential Business Phrases You Need to Know Today" (50 chars — TOO LONG)

## Output Schema (MUST be valid JSON)
`+"```json"+`
{
  "videoFile": "%s",
  "hookTitle": {
    "ja": "string",
    "en": "string"
  },
  "clip": {
    "startTime": number,
    "endTime": number
  },
  "subtitles": [
    {
      "startTime": number,
      "endTime": number,
      "en": "string",
      "ja": "string",
      "highlights": ["word1", "word2"]
    }
  ],
  "vocabCards": [
    {
      "triggerTime": number,
      "duration": 3.5,
      "category": "ビジネス英語",
      "phrase": "string",
      "literal": "string",
      "nuance": "string"
    }
  ]
}
`+"```"+`

## Requirements
- Ensure clip duration is %.0f-%.0f seconds
- Subtitles must cover the entire clip with no gaps
- Each subtitle segment should be 2-4 seconds
- Highlight words should actually appear in the Japanese text
- **hookTitle.ja must be <= %d characters** — count each character as 1, no exceptions
- **hookTitle.en must be <= %d characters** — keep it short and punchy
- **Each subtitle en must be <= %d characters** — use exact words spoken, split at natural pauses
- Return ONLY valid JSON, no markdown code blocks, no explanations
- All timestamps are in seconds (can be floats like 1.5)

Now analyze and output the JSON:`,
		caption.MinClipDuration, caption.MaxClipDuration,
		transcriptText,
		caption.MinClipDuration, caption.MaxClipDuration,
		limits.SubtitleEN, limits.SubtitleEN,
		timingRules,
		limits.HookTitleJA, limits.HookTitleEN,
		videoFileName,
		caption.MinClipDuration, caption.MaxClipDuration,
		limits.HookTitleJA, limits.HookTitleEN, limits.SubtitleEN,
	)
}

// buildRetryPrompt asks for a minimal corrective fix within the same
// conversation, so the model keeps its prior clip selection instead of
// starting over.
func buildRetryPrompt(validationErr string) string {
	return fmt.Sprintf(`Your previous response had a validation error:

%s

Please fix the issue and return the corrected JSON. Keep all other content the same — only fix the problem described above.`, validationErr)
}
