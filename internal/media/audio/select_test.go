package audio

import (
	"testing"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media"
)

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func twoStreams() []media.Stream {
	return []media.Stream{
		{Index: 0, CodecName: "aac", Channels: 2, SampleRate: 48000, Language: strptr("eng")},
		{Index: 2, CodecName: "mp3", Channels: 1, SampleRate: 16000, Language: strptr("jpn")},
	}
}

func TestSelectNoStreams(t *testing.T) {
	result := Select(nil, Preferences{})
	if result.Selected != nil {
		t.Fatal("expected no selection")
	}
	if !faults.HasCode(result.Faults, faults.CodeNoAudioStream) {
		t.Fatalf("expected no_audio_stream fault, got %+v", result.Faults)
	}
}

func TestSelectDefaultPrefersQuality(t *testing.T) {
	result := Select(twoStreams(), Preferences{})
	if result.Selected == nil {
		t.Fatalf("expected a selection, got faults %+v", result.Faults)
	}
	if result.Selected.Index != 0 {
		t.Fatalf("expected stream 0, got %d", result.Selected.Index)
	}
}

func TestSelectExplicitIndex(t *testing.T) {
	result := Select(twoStreams(), Preferences{Index: intptr(2)})
	if result.Selected == nil || result.Selected.Index != 2 {
		t.Fatalf("expected stream 2, got %+v", result)
	}
}

func TestSelectExplicitIndexMissing(t *testing.T) {
	result := Select(twoStreams(), Preferences{Index: intptr(5)})
	if result.Selected != nil {
		t.Fatal("expected no selection")
	}
	if !faults.HasCode(result.Faults, faults.CodeInvalidStreamSelection) {
		t.Fatalf("expected invalid_stream_selection fault, got %+v", result.Faults)
	}
}

func TestSelectIndexWinsOverLanguage(t *testing.T) {
	result := Select(twoStreams(), Preferences{Index: intptr(0), Language: strptr("jpn")})
	if result.Selected == nil || result.Selected.Index != 0 {
		t.Fatalf("expected index preference to win, got %+v", result)
	}
}

func TestSelectLanguagePreference(t *testing.T) {
	result := Select(twoStreams(), Preferences{Language: strptr("jpn")})
	if result.Selected == nil || result.Selected.Index != 2 {
		t.Fatalf("expected jpn stream 2, got %+v", result)
	}
}

func TestSelectLanguageCanonicalMatch(t *testing.T) {
	// "en" should match a stream tagged "eng".
	result := Select(twoStreams(), Preferences{Language: strptr("en")})
	if result.Selected == nil || result.Selected.Index != 0 {
		t.Fatalf("expected eng stream 0, got %+v", result)
	}
}

func TestSelectLanguageMissingDoesNotFallBack(t *testing.T) {
	streams := []media.Stream{
		{Index: 0, Channels: 2, SampleRate: 48000, Language: strptr("eng")},
	}
	result := Select(streams, Preferences{Language: strptr("jpn")})
	if result.Selected != nil {
		t.Fatal("expected no silent fallback when language is absent")
	}
	if !faults.HasCode(result.Faults, faults.CodeInvalidStreamSelection) {
		t.Fatalf("expected invalid_stream_selection fault, got %+v", result.Faults)
	}
}

func TestSelectRankingTieBreaksByPosition(t *testing.T) {
	streams := []media.Stream{
		{Index: 1, Channels: 2, SampleRate: 48000, BitRate: 128000},
		{Index: 3, Channels: 2, SampleRate: 48000, BitRate: 128000},
	}
	result := Select(streams, Preferences{})
	if result.Selected == nil || result.Selected.Index != 1 {
		t.Fatalf("expected earliest stream on tie, got %+v", result)
	}
}

func TestSelectRankingBitRateBreaksTies(t *testing.T) {
	streams := []media.Stream{
		{Index: 0, Channels: 2, SampleRate: 48000, BitRate: 96000},
		{Index: 1, Channels: 2, SampleRate: 48000, BitRate: 256000},
	}
	result := Select(streams, Preferences{})
	if result.Selected == nil || result.Selected.Index != 1 {
		t.Fatalf("expected higher bit rate stream, got %+v", result)
	}
}

func TestSelectUntaggedStreamNeverMatchesLanguage(t *testing.T) {
	streams := []media.Stream{
		{Index: 0, Channels: 2, SampleRate: 48000},
	}
	result := Select(streams, Preferences{Language: strptr("eng")})
	if result.Selected != nil {
		t.Fatal("untagged stream must not satisfy a language preference")
	}
}
