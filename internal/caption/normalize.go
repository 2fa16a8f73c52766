package caption

import "log"

// NormalizeTimestamps corrects clip-relative timestamps and clamps all
// times into the clip window, mutating data in place.
//
// The model is instructed to emit absolute timestamps, but sometimes
// returns times relative to the clip start instead. Heuristic: if the
// clip starts later than 5s into the source and the first subtitle
// starts before half the clip start, treat the output as relative and
// shift every subtitle and vocab card by +clip.startTime. A clip
// starting near zero is left alone even if it was truly relative;
// false positives on legitimate small offsets are worse than missing
// a shift.
func NormalizeTimestamps(data *ClipData) {
	if len(data.Subtitles) == 0 {
		return
	}

	clipStart := data.Clip.StartTime
	clipEnd := data.Clip.EndTime

	firstSubStart := data.Subtitles[0].StartTime
	if clipStart > 5 && firstSubStart < clipStart*0.5 {
		log.Printf("[caption] detected relative timestamps (first subtitle at %gs, clip starts at %gs), shifting by +%gs",
			firstSubStart, clipStart, clipStart)

		for i := range data.Subtitles {
			data.Subtitles[i].StartTime += clipStart
			data.Subtitles[i].EndTime += clipStart
		}
		for i := range data.VocabCards {
			data.VocabCards[i].TriggerTime += clipStart
		}
	}

	for i := range data.Subtitles {
		data.Subtitles[i].StartTime = clamp(data.Subtitles[i].StartTime, clipStart, clipEnd)
		data.Subtitles[i].EndTime = clamp(data.Subtitles[i].EndTime, clipStart, clipEnd)
	}
	for i := range data.VocabCards {
		card := &data.VocabCards[i]
		card.TriggerTime = clamp(card.TriggerTime, clipStart, clipEnd-card.Duration)
	}
}

// clamp bounds v to [lo, hi], applying lo last: when a card's duration
// exceeds the clip window the bounds conflict, and the result must
// still sit inside the clip rather than before it.
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
