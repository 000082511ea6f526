package models

// State is a coverage region; each state maps to one default package.
type State struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultPackage maps a state to a playlist file and a validity window for
// demo users created in that state.
type DefaultPackage struct {
	ID            int64  `json:"id"`
	StateID       int64  `json:"state_id"`
	PackageName   string `json:"package_name"`
	FileName      string `json:"file_name"`
	ValidityHours int    `json:"validity"`
}

// PartnerPackage maps a reseller (keyed by partner code) to its playlist
// file. DeviceIDs is the comma-joined persisted form, same convention as
// DemoUser.
type PartnerPackage struct {
	ID          int64  `json:"id"`
	PartnerID   int64  `json:"partner_id"`
	PartnerCode string `json:"partner_code"`
	PackageName string `json:"package_name"`
	FileName    string `json:"file_name"`
	DeviceIDs   string `json:"device_ids"`
}
