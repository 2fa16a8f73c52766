package caption

import (
	"log"
	"strings"

	"github.com/fluencykaizen/backend/internal/whisper"
)

// BackfillEnglish fills blank subtitle EN fields from the transcript,
// mutating data in place. The model often returns empty English text
// for primarily Japanese speech; the transcript has the actual spoken
// words. Subtitles that already carry text are never touched.
//
// With word-level timing, a subtitle receives every word whose temporal
// midpoint falls inside its window. Without it, segment text is matched
// by segment midpoint instead.
func BackfillEnglish(data *ClipData, transcript *whisper.Transcript) {
	if transcript == nil || len(transcript.Segments) == 0 || len(data.Subtitles) == 0 {
		return
	}

	needsBackfill := false
	for _, sub := range data.Subtitles {
		if strings.TrimSpace(sub.EN) == "" {
			needsBackfill = true
			break
		}
	}
	if !needsBackfill {
		return
	}

	type timedWord struct {
		word string
		mid  float64
	}
	var allWords []timedWord
	for _, seg := range transcript.Segments {
		for _, w := range seg.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			allWords = append(allWords, timedWord{word: word, mid: (w.Start + w.End) / 2})
		}
	}

	for i := range data.Subtitles {
		sub := &data.Subtitles[i]
		if strings.TrimSpace(sub.EN) != "" {
			continue
		}

		var matched []string
		if len(allWords) > 0 {
			for _, w := range allWords {
				if w.mid >= sub.StartTime && w.mid <= sub.EndTime {
					matched = append(matched, w.word)
				}
			}
		} else {
			for _, seg := range transcript.Segments {
				segMid := (seg.Start + seg.End) / 2
				if segMid >= sub.StartTime && segMid <= sub.EndTime {
					if text := strings.TrimSpace(seg.Text); text != "" {
						matched = append(matched, text)
					}
				}
			}
		}

		if len(matched) > 0 {
			sub.EN = strings.Join(strings.Fields(strings.Join(matched, " ")), " ")
		}
	}

	filled := 0
	for _, sub := range data.Subtitles {
		if strings.TrimSpace(sub.EN) != "" {
			filled++
		}
	}
	log.Printf("[caption] transcript backfill: %d/%d subtitles have English text", filled, len(data.Subtitles))
}
