package captions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SceneScribe/pkg/models"
)

const autoCaptions = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.310 align:start position:0%
 
welcome<00:00:00.480><c> to</c><00:00:00.719><c> the</c><00:00:00.960><c> show</c>

00:00:02.310 --> 00:00:02.320 align:start position:0%
welcome to the show
 

00:00:02.320 --> 00:00:05.000 align:start position:0%
welcome to the show
today<00:00:03.100><c> we</c><00:00:03.400><c>   </c><00:00:03.900><c> cook</c>
`

func texts(tr *models.Transcript) []string {
	var out []string
	for _, p := range tr.Phrases {
		out = append(out, p.Text)
	}
	return out
}

func TestParseAutoCaptions(t *testing.T) {
	tr, err := Parse(autoCaptions)
	require.NoError(t, err)

	assert.Equal(t, []string{"welcome", "to", "the", "show", "today", "we", "cook"}, texts(tr))
	assert.EqualValues(t, 0, tr.Phrases[0].StartTimeMs)
	assert.EqualValues(t, 480, tr.Phrases[1].StartTimeMs)
	assert.EqualValues(t, 2320, tr.Phrases[4].StartTimeMs)
	assert.EqualValues(t, 3900, tr.Phrases[6].StartTimeMs)
	assert.Equal(t, "welcome to the show today we cook", tr.Text())
}

func TestParsePhrasesAreOrdered(t *testing.T) {
	vtt := "WEBVTT\n\n" +
		"00:00:05.000 --> 00:00:06.000\n<c>later</c>\n\n" +
		"00:00:01.000 --> 00:00:02.000\n<c>earlier</c><00:00:01.500><c> still</c>\n"
	tr, err := Parse(vtt)
	require.NoError(t, err)
	assert.Equal(t, []string{"earlier", "still", "later"}, texts(tr))
	for i := 1; i < len(tr.Phrases); i++ {
		assert.LessOrEqual(t, tr.Phrases[i-1].StartTimeMs, tr.Phrases[i].StartTimeMs)
	}
}

func TestParseShortCueTimes(t *testing.T) {
	vtt := "WEBVTT\r\n\r\n01:02.500 --> 01:04.000\r\nhi<01:03.000><c> there</c>\r\n"
	tr, err := Parse(vtt)
	require.NoError(t, err)
	require.Len(t, tr.Phrases, 1)
	assert.Equal(t, "hi", tr.Phrases[0].Text)
	assert.EqualValues(t, 62_500, tr.Phrases[0].StartTimeMs)
}

func TestParseUntaggedCaptionsYieldNothing(t *testing.T) {
	tr, err := Parse("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nplain text only\n")
	require.NoError(t, err)
	assert.Empty(t, tr.Phrases)
}

func TestParseMalformedTiming(t *testing.T) {
	_, err := Parse("WEBVTT\n\n1:2 --> 00:00:02.000\n<c>x</c>\n")
	require.Error(t, err)
	assert.True(t, models.IsParse(err))
}

func TestTimestampToMs(t *testing.T) {
	for _, s := range []string{"01:02:03.456", "01:02:03:456", "01_02_03_456"} {
		ms, err := TimestampToMs(s)
		require.NoError(t, err, s)
		assert.EqualValues(t, 3_723_456, ms, s)
	}

	_, err := TimestampToMs("01:02:03")
	assert.True(t, models.IsParse(err))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.en.vtt")
	require.NoError(t, os.WriteFile(path, []byte(autoCaptions), 0o644))

	tr, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, tr.Phrases, 7)

	_, err = ParseFile(filepath.Join(dir, "missing.vtt"))
	assert.True(t, models.IsNotFound(err))

	_, err = ParseFile(dir)
	assert.True(t, models.IsNotFound(err))
}
