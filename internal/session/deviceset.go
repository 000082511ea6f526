package session

import "strings"

// DeviceLimit is the maximum number of simultaneous device bindings per
// account.
const DeviceLimit = 2

// Policy decides what happens when a new device is bound to a full set.
type Policy int

const (
	// PolicyReject refuses the bind and leaves the set unchanged.
	PolicyReject Policy = iota
	// PolicyEvictOldest drops the oldest binding to make room.
	PolicyEvictOldest
)

// DeviceSet is a bounded ordered set of device identifiers. It replaces the
// comma-joined strings the panel historically stored; Join restores that
// form at the persistence boundary.
type DeviceSet struct {
	ids []string
}

// ParseDeviceSet splits a comma-joined device list, trimming whitespace and
// dropping empty entries. Oversized legacy rows are kept as-is so reads
// never lose data; Add enforces the cap on mutation.
func ParseDeviceSet(joined string) DeviceSet {
	var s DeviceSet
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" && !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Contains reports whether id is bound.
func (s DeviceSet) Contains(id string) bool {
	for _, d := range s.ids {
		if d == id {
			return true
		}
	}
	return false
}

// Add binds id. Re-binding an existing device is a no-op. On a full set,
// PolicyReject returns ErrDeviceLimit and PolicyEvictOldest drops the
// binding at index 0.
func (s *DeviceSet) Add(id string, policy Policy) error {
	if s.Contains(id) {
		return nil
	}
	if len(s.ids) >= DeviceLimit {
		if policy == PolicyReject {
			return ErrDeviceLimit
		}
		s.ids = s.ids[1:]
	}
	s.ids = append(s.ids, id)
	return nil
}

// Remove unbinds id if present; absent ids are ignored.
func (s *DeviceSet) Remove(id string) {
	for i, d := range s.ids {
		if d == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

// Join serialises the set into the comma-joined persisted form.
func (s DeviceSet) Join() string {
	return strings.Join(s.ids, ",")
}

// IDs returns the bound identifiers in binding order.
func (s DeviceSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of bound devices.
func (s DeviceSet) Len() int {
	return len(s.ids)
}
