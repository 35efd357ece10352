package models

import "strings"

// TranscribedPhrase is a single caption phrase and the time it starts being spoken.
type TranscribedPhrase struct {
	Text        string `json:"text"`
	StartTimeMs int64  `json:"start_time_ms"`
}

// Transcript is an ordered list of phrases; StartTimeMs is non-decreasing.
type Transcript struct {
	Phrases []TranscribedPhrase `json:"phrases"`
}

// PhrasesInRange returns the phrases starting in the half-open interval [startMs, endMs).
func (t *Transcript) PhrasesInRange(startMs, endMs int64) []TranscribedPhrase {
	var out []TranscribedPhrase
	for _, p := range t.Phrases {
		if p.StartTimeMs >= startMs && p.StartTimeMs < endMs {
			out = append(out, p)
		}
	}
	return out
}

// EndTimeMs is the latest phrase start plus one second. ok is false for an empty transcript.
func (t *Transcript) EndTimeMs() (end int64, ok bool) {
	if len(t.Phrases) == 0 {
		return 0, false
	}
	for _, p := range t.Phrases {
		if p.StartTimeMs > end {
			end = p.StartTimeMs
		}
	}
	return end + 1000, true
}

// Text joins all phrases with single spaces.
func (t *Transcript) Text() string {
	return JoinPhrases(t.Phrases)
}

// JoinPhrases space-joins phrase text in order.
func JoinPhrases(phrases []TranscribedPhrase) string {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		parts = append(parts, strings.TrimSpace(p.Text))
	}
	return strings.Join(parts, " ")
}

// Frame is a time window of the video with the phrases spoken during it.
type Frame struct {
	Index      int                 `json:"index"`
	StartsAtMs int64               `json:"starts_at_ms"`
	EndsAtMs   int64               `json:"ends_at_ms"`
	Phrases    []TranscribedPhrase `json:"phrases"`
	Text       string              `json:"text"`
}

// FrameOutput is the alignment artifact. Frames are contiguous and non-overlapping.
type FrameOutput struct {
	Frames []Frame `json:"frames"`
}
