package models

// Channel is a single lineup entry parsed from an uploaded playlist.
// The JSON tags mirror the wire format consumed by the set-top clients and
// are load-bearing. Logo fields are only populated in the full output
// variant; in the stripped variant they stay empty and are omitted.
type Channel struct {
	ChannelID          string   `json:"channelId"`
	ChannelName        string   `json:"channelName"`
	ChannelLogoURL     string   `json:"channelLogoUrl,omitempty"`
	ChannelMainLogoURL string   `json:"channelmainLogoUrl,omitempty"`
	ChannelPlayURL     string   `json:"channelPlayUrl"`
	AudioInfo          []string `json:"audioInfo"`
	ChannelCategory    string   `json:"channelCategory"`
	ChannelLanguage    string   `json:"channelLanguage"`
	CategoryID         string   `json:"categoryId"`
	LanguageID         int      `json:"languageId"`
	MultiCastURL       *string  `json:"multiCastUrl"`
	UnicastDashURL     *string  `json:"unicastDashUrl"`
	UnicastHlsURL      *string  `json:"unicastHlsUrl"`
	MultiAudio         bool     `json:"multiAudio"`
}
