package models

// ScrollingMessage is a ticker text pushed to clients at scheduled times.
// TimeSchedule holds "YYYY-MM-DD HH:MM:SS" slots.
type ScrollingMessage struct {
	ID            int64    `json:"id"`
	ScrollingName string   `json:"scrolling_name"`
	Script        string   `json:"script"`
	TimeSchedule  []string `json:"time_schedule"`
}

// ScrollPush is one broadcast entry emitted when a schedule slot matches.
type ScrollPush struct {
	ScrollID      string `json:"scrollId"`
	ScrollingName string `json:"scrollingName"`
	Script        string `json:"script"`
	TimeSlot      string `json:"timeSlot"`
	DisplayTime   int    `json:"displayTime"`
}
