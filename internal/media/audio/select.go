package audio

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media"
)

// Preferences narrow the selection. A nil field means no preference.
type Preferences struct {
	Index    *int
	Language *string
}

// Result is the terminal outcome of one selection. Either Selected is
// non-nil or Faults is non-empty.
type Result struct {
	Selected *media.Stream
	Faults   []faults.Fault
	Warnings []faults.Fault
}

// Select chooses the audio stream to extract. The algorithm is deterministic
// and idempotent: explicit index wins outright, a language preference
// restricts the candidate pool without silent fallback, and the remaining
// candidates are ranked by (channels, sample rate, bit rate) descending with
// ties broken by earliest original position.
func Select(streams []media.Stream, prefs Preferences) Result {
	if len(streams) == 0 {
		return Result{Faults: []faults.Fault{
			faults.New(faults.CodeNoAudioStream, "No audio stream available for extraction").
				WithHint("Provide media with at least one audio stream."),
		}}
	}

	if prefs.Index != nil {
		for i := range streams {
			if streams[i].Index == *prefs.Index {
				selected := streams[i]
				return Result{Selected: &selected}
			}
		}
		return Result{Faults: []faults.Fault{
			faults.New(faults.CodeInvalidStreamSelection, "Audio stream index %d not found", *prefs.Index).
				WithHint("Use ffprobe to list available streams and choose a valid index."),
		}}
	}

	candidates := streams
	if prefs.Language != nil {
		matches := make([]media.Stream, 0, len(streams))
		for _, stream := range streams {
			if stream.Language != nil && languageEqual(*stream.Language, *prefs.Language) {
				matches = append(matches, stream)
			}
		}
		if len(matches) == 0 {
			return Result{Faults: []faults.Fault{
				faults.New(faults.CodeInvalidStreamSelection, "Requested audio language %q not found", *prefs.Language).
					WithHint("Choose a language tag present in the input or omit the language preference."),
			}}
		}
		candidates = matches
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if ranksAbove(candidates[i], candidates[best]) {
			best = i
		}
	}
	selected := candidates[best]
	return Result{Selected: &selected}
}

// ranksAbove compares the quality tuple (channels, sample rate, bit rate).
// Strict inequality keeps the earliest candidate on full ties.
func ranksAbove(a, b media.Stream) bool {
	if a.Channels != b.Channels {
		return a.Channels > b.Channels
	}
	if a.SampleRate != b.SampleRate {
		return a.SampleRate > b.SampleRate
	}
	return a.BitRate > b.BitRate
}

// languageEqual matches tags case-insensitively, additionally treating
// spellings of the same language as equal when both parse as BCP 47 ("eng"
// matches "en"). Unparseable tags fall back to the raw comparison only.
func languageEqual(tag, preference string) bool {
	if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(preference)) {
		return true
	}
	tagParsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return false
	}
	prefParsed, err := language.Parse(strings.TrimSpace(preference))
	if err != nil {
		return false
	}
	tagBase, confA := tagParsed.Base()
	prefBase, confB := prefParsed.Base()
	if confA == language.No || confB == language.No {
		return false
	}
	return tagBase == prefBase
}
