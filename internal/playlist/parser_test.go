package playlist

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicRecord(t *testing.T) {
	input := "#EXTINF:channelName=\"Foo\",channelCategory=\"News\"\nhttps://x/y.ts\n"
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 1)
	assert.Equal(t, "Foo", channels[0].ChannelName)
	assert.Equal(t, "News", channels[0].ChannelCategory)
	assert.Equal(t, "https://x/y.ts", channels[0].ChannelPlayURL)
}

func TestParsePlaceholderDefaults(t *testing.T) {
	channels := Parse("#EXTINF:\nhttp://h/s.ts\n", VariantStripped)

	require.Len(t, channels, 1)
	ch := channels[0]
	assert.Equal(t, "*", ch.ChannelName)
	assert.Equal(t, "**", ch.ChannelCategory)
	assert.Equal(t, "*", ch.ChannelLanguage)
	assert.Equal(t, "**", ch.CategoryID)
	assert.Equal(t, 0, ch.LanguageID)
	assert.Nil(t, ch.MultiCastURL)
	assert.Nil(t, ch.UnicastDashURL)
	assert.Nil(t, ch.UnicastHlsURL)
	assert.False(t, ch.MultiAudio)
	assert.NotNil(t, ch.AudioInfo)
	assert.Empty(t, ch.AudioInfo)
}

func TestParseURLLessRecordFlushedOnNextEXTINF(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:channelName=Bar`,
		`#EXTINF:channelName=Baz`,
		`http://host/baz.ts`,
	}, "\n")
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 2)
	assert.Equal(t, "Bar", channels[0].ChannelName)
	assert.Equal(t, "", channels[0].ChannelPlayURL)
	assert.Equal(t, "Baz", channels[1].ChannelName)
	assert.Equal(t, "http://host/baz.ts", channels[1].ChannelPlayURL)
}

func TestParseTrailingRecordFlushedAtEOF(t *testing.T) {
	channels := Parse(`#EXTINF:channelName="Tail"`, VariantStripped)

	require.Len(t, channels, 1)
	assert.Equal(t, "Tail", channels[0].ChannelName)
	assert.Equal(t, "", channels[0].ChannelPlayURL)
}

func TestParseSkipsBlankAndStreamLines(t *testing.T) {
	input := strings.Join([]string{
		"",
		"stream metadata that should be ignored",
		`#EXTINF:channelName="One"`,
		"",
		"http://host/1.ts",
	}, "\n")
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 1)
	assert.Equal(t, "One", channels[0].ChannelName)
	assert.Equal(t, "http://host/1.ts", channels[0].ChannelPlayURL)
}

func TestParseInvalidURLLineKeepsRecordPending(t *testing.T) {
	input := strings.Join([]string{
		`#EXTINF:channelName="One"`,
		"not a url",
		"http://host/1.ts",
	}, "\n")
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 1)
	assert.Equal(t, "http://host/1.ts", channels[0].ChannelPlayURL)
}

func TestParsePlayURLPrefixAndQuotes(t *testing.T) {
	input := "#EXTINF:channelName=\"One\"\nchannelPlayUrl = \"http://host/1.ts\"\n"
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 1)
	assert.Equal(t, "http://host/1.ts", channels[0].ChannelPlayURL)
}

func TestParseAttributes(t *testing.T) {
	input := `#EXTINF:channelName="Sports One",channelLanguage=Hindi,categoryId=7,languageId=3,multiCastUrl=null,unicastHlsUrl="http://h/hls.m3u8",multiAudio=true` + "\nhttp://h/1.ts\n"
	channels := Parse(input, VariantStripped)

	require.Len(t, channels, 1)
	ch := channels[0]
	assert.Equal(t, "Sports One", ch.ChannelName)
	assert.Equal(t, "Hindi", ch.ChannelLanguage)
	assert.Equal(t, "7", ch.CategoryID)
	assert.Equal(t, 3, ch.LanguageID)
	assert.Nil(t, ch.MultiCastURL)
	require.NotNil(t, ch.UnicastHlsURL)
	assert.Equal(t, "http://h/hls.m3u8", *ch.UnicastHlsURL)
	assert.True(t, ch.MultiAudio)
}

func TestParseLogoVariants(t *testing.T) {
	input := `#EXTINF:channelName="One",channelLogoUrl="http://h/logo.png"` + "\nhttp://h/1.ts\n"

	stripped := Parse(input, VariantStripped)
	require.Len(t, stripped, 1)
	assert.Empty(t, stripped[0].ChannelLogoURL)
	assert.Empty(t, stripped[0].ChannelMainLogoURL)

	full := Parse(input, VariantFull)
	require.Len(t, full, 1)
	assert.Equal(t, "http://h/logo.png", full[0].ChannelLogoURL)
	assert.Equal(t, "http://h/logo.png", full[0].ChannelMainLogoURL)
}

func TestParseLogoKeyCaseInsensitive(t *testing.T) {
	input := `#EXTINF:channelName="One",CHANNELLOGOURL="http://h/logo.png"` + "\nhttp://h/1.ts\n"
	full := Parse(input, VariantFull)

	require.Len(t, full, 1)
	assert.Equal(t, "http://h/logo.png", full[0].ChannelLogoURL)
}

func TestParseNeverFailsOnGarbage(t *testing.T) {
	for _, input := range []string{
		"",
		"\n\n\n",
		"complete nonsense\nmore nonsense",
		"#EXTINF:===,,,\"\"\n#EXTINF:",
	} {
		assert.NotPanics(t, func() { Parse(input, VariantFull) })
	}
	assert.Empty(t, Parse("no playlist here", VariantFull))
}

func TestAssignIDsSequential(t *testing.T) {
	input := strings.Repeat("#EXTINF:channelName=\"C\"\nhttp://h/c.ts\n", 5)
	channels := AssignIDs(Parse(input, VariantStripped))

	require.Len(t, channels, 5)
	for i, ch := range channels {
		assert.Equal(t, strconv.Itoa(i+1), ch.ChannelID)
	}

	// Idempotent for a fixed ordering.
	again := AssignIDs(channels)
	for i, ch := range again {
		assert.Equal(t, strconv.Itoa(i+1), ch.ChannelID)
	}
}
