package playlist

import (
	"bufio"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dreamplay/lineup/internal/models"
)

// Variant selects how logo attributes on the #EXTINF line are handled.
type Variant int

const (
	// VariantFull keeps logo attributes: the first logo value seen is
	// mirrored into both channelLogoUrl and channelmainLogoUrl.
	VariantFull Variant = iota
	// VariantStripped drops logo attributes entirely.
	VariantStripped
)

var (
	// key=value pairs on an #EXTINF line: value is either double-quoted or
	// runs to the next comma/whitespace.
	reAttr = regexp.MustCompile(`(\w+)\s*=\s*("([^"]*)"|[^,\s]+)`)
	// Optional prefix on the play-URL line.
	rePlayURLKey = regexp.MustCompile(`(?i)^channelPlayUrl\s*=\s*`)
)

// Parse turns raw playlist text into an ordered channel list. It never
// fails: malformed lines degrade to placeholder fields or are skipped, and
// an empty result is a valid result.
//
// The format is line-oriented with a single pending record: #EXTINF: starts
// a record (flushing any previous one, even URL-less), and the next valid
// absolute URL line closes it. Blank lines and "stream " lines are skipped.
func Parse(content string, variant Variant) []models.Channel {
	var channels []models.Channel
	var pending *models.Channel

	scanner := bufio.NewScanner(strings.NewReader(content))
	// Uploaded playlists carry very long EXTINF lines.
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "stream ") {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF:") {
			if pending != nil {
				channels = append(channels, *pending)
			}
			ch := newRecord()
			applyAttrs(&ch, line, variant)
			pending = &ch
			continue
		}

		if pending == nil {
			continue
		}

		playURL := cleanURL(rePlayURLKey.ReplaceAllString(line, ""))
		if !isAbsoluteURL(playURL) {
			// Invalid URL line: drop it, keep waiting for a later one.
			continue
		}
		pending.ChannelPlayURL = playURL
		channels = append(channels, *pending)
		pending = nil
	}

	if pending != nil {
		channels = append(channels, *pending)
	}
	return channels
}

// AssignIDs stamps dense sequential identifiers "1".."N" in list order.
// It is pure and idempotent for a fixed ordering; no deduplication.
func AssignIDs(channels []models.Channel) []models.Channel {
	for i := range channels {
		channels[i].ChannelID = strconv.Itoa(i + 1)
	}
	return channels
}

// newRecord returns a channel with the placeholder defaults the clients
// expect for unset fields.
func newRecord() models.Channel {
	return models.Channel{
		ChannelName:     "*",
		ChannelCategory: "**",
		ChannelLanguage: "*",
		CategoryID:      "**",
		AudioInfo:       []string{},
	}
}

func applyAttrs(ch *models.Channel, line string, variant Variant) {
	for _, m := range reAttr.FindAllStringSubmatch(line, -1) {
		key := strings.TrimSpace(m[1])
		var value string
		if m[3] != "" || strings.HasPrefix(m[2], `"`) {
			value = strings.TrimSpace(m[3])
		} else {
			value = strings.TrimSpace(m[2])
		}
		value = strings.Trim(value, `"`)
		// Unquoted values may still carry a trailing comma-section.
		if i := strings.Index(value, ","); i >= 0 {
			value = strings.TrimSpace(value[:i])
		}

		lower := strings.ToLower(key)
		if lower == "channellogourl" || lower == "channelmainlogourl" {
			if variant == VariantStripped {
				continue
			}
			// Full variant: first logo value wins and fills both fields.
			if ch.ChannelLogoURL == "" {
				ch.ChannelLogoURL = value
				ch.ChannelMainLogoURL = value
			}
			continue
		}

		switch key {
		case "channelName":
			ch.ChannelName = value
		case "channelCategory":
			ch.ChannelCategory = value
		case "channelLanguage":
			ch.ChannelLanguage = value
		case "categoryId":
			ch.CategoryID = value
		case "languageId":
			if n, err := strconv.Atoi(value); err == nil {
				ch.LanguageID = n
			}
		case "multiCastUrl":
			ch.MultiCastURL = nullable(value)
		case "unicastDashUrl":
			ch.UnicastDashURL = nullable(value)
		case "unicastHlsUrl":
			ch.UnicastHlsURL = nullable(value)
		case "multiAudio":
			ch.MultiAudio = value == "true"
		}
	}
}

// nullable maps the literal "null" to nil.
func nullable(value string) *string {
	if value == "null" {
		return nil
	}
	return &value
}

// cleanURL trims whitespace and strips one pair of surrounding quotes.
func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		raw = raw[1 : len(raw)-1]
	}
	return raw
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
