package session

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/store"
)

// State is the lifecycle position of an account session.
type State int

const (
	StateNonExistent State = iota
	StateActive
	StateExpired
)

// String returns the API status label for a state.
func (s State) String() string {
	switch s {
	case StateActive:
		return models.StatusActive
	case StateExpired:
		return models.StatusExpired
	default:
		return "nonexistent"
	}
}

// Session is the materialised view of one account's validity window and
// device bindings. It is recomputed from the stored row on every call.
type Session struct {
	User      *models.DemoUser
	State     State
	Devices   DeviceSet
	ExpiresAt time.Time
}

var reMobile = regexp.MustCompile(`^\d{10}$`)

// ValidateMobile checks the 10-digit mobile number shape.
func ValidateMobile(mobile string) error {
	if !reMobile.MatchString(mobile) {
		return Validationf("mobile number must be 10 digits")
	}
	return nil
}

// ParseTimestamp parses an API timestamp ("YYYY-MM-DD HH:MM:SS") as server
// wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.TimeFormat, s, time.Local)
	if err != nil {
		return time.Time{}, Validationf("invalid date format, use YYYY-MM-DD HH:MM:SS")
	}
	return t, nil
}

// Engine is the per-account state machine enforcing validity windows and
// the device-binding cap. All mutations go through the Store passed at
// construction; a failed mutation leaves no partial state.
type Engine struct {
	store  store.Store
	policy Policy
	now    func() time.Time
}

// NewEngine creates an Engine with the given device-limit policy.
func NewEngine(s store.Store, policy Policy) *Engine {
	return &Engine{store: s, policy: policy, now: time.Now}
}

// Policy returns the configured device-overflow policy. Every device bind
// in the deployment, whatever the account kind, follows this one policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Lookup reads the stored account row and reports Active, Expired, or
// NonExistent. A missing row is not an error.
func (e *Engine) Lookup(ctx context.Context, mobile string) (Session, error) {
	u, err := e.store.GetDemoUser(ctx, mobile)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{State: StateNonExistent}, nil
		}
		return Session{}, storagef("lookup "+mobile, err)
	}
	return e.sessionOf(u), nil
}

// CreateOrBind creates the account from NonExistent: it resolves the
// default package for stateName, starts the validity window now, and binds
// the single device. Package resolution and the insert are bound together;
// either both take effect or neither does. The resolved package is returned
// so the caller can load its playlist.
func (e *Engine) CreateOrBind(ctx context.Context, mobile, stateName, deviceID string) (Session, *models.DefaultPackage, error) {
	if err := ValidateMobile(mobile); err != nil {
		return Session{}, nil, err
	}
	if stateName == "" {
		return Session{}, nil, Validationf("state name is required")
	}

	st, err := e.store.GetStateByName(ctx, stateName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, nil, Validationf("invalid state name")
		}
		return Session{}, nil, storagef("state "+stateName, err)
	}

	pkg, err := e.store.GetDefaultPackageByState(ctx, st.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, nil, ErrPackageNotFound
		}
		return Session{}, nil, storagef("package for state "+stateName, err)
	}

	var devices DeviceSet
	if deviceID != "" {
		_ = devices.Add(deviceID, e.policy)
	}

	u := &models.DemoUser{
		MobileNumber:  mobile,
		StateID:       st.ID,
		DefaultPackID: pkg.ID,
		DefaultPack:   pkg.PackageName,
		ValidityHours: pkg.ValidityHours,
		FileName:      pkg.FileName,
		DeviceIDs:     devices.Join(),
		CreatedAt:     e.now(),
	}
	if err := e.store.CreateDemoUser(ctx, u); err != nil {
		return Session{}, nil, storagef("create "+mobile, err)
	}
	return e.sessionOf(u), pkg, nil
}

// AddDevice binds deviceID to an Active account. Re-binding is a no-op.
// On a full set the configured policy decides: reject (ErrDeviceLimit, list
// unchanged) or evict-oldest. Expired accounts are returned unmodified so
// the caller can report the expiry.
func (e *Engine) AddDevice(ctx context.Context, mobile, deviceID string) (Session, error) {
	sess, err := e.Lookup(ctx, mobile)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateNonExistent {
		return Session{}, ErrAccountNotFound
	}
	if sess.State != StateActive || sess.Devices.Contains(deviceID) {
		return sess, nil
	}
	if err := sess.Devices.Add(deviceID, e.policy); err != nil {
		return sess, err
	}
	if err := e.store.UpdateDemoUserDevices(ctx, mobile, sess.Devices.Join()); err != nil {
		return sess, storagef("bind device "+mobile, err)
	}
	sess.User.DeviceIDs = sess.Devices.Join()
	return sess, nil
}

// RemoveDevice unbinds deviceID; an absent device is not an error.
func (e *Engine) RemoveDevice(ctx context.Context, mobile, deviceID string) (Session, error) {
	sess, err := e.Lookup(ctx, mobile)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateNonExistent {
		return Session{}, ErrAccountNotFound
	}
	if !sess.Devices.Contains(deviceID) {
		return sess, nil
	}
	sess.Devices.Remove(deviceID)
	if err := e.store.UpdateDemoUserDevices(ctx, mobile, sess.Devices.Join()); err != nil {
		return sess, storagef("unbind device "+mobile, err)
	}
	sess.User.DeviceIDs = sess.Devices.Join()
	return sess, nil
}

// RenewValidity restarts the validity window now. A positive
// newValidityHours overwrites the stored duration; zero keeps it.
func (e *Engine) RenewValidity(ctx context.Context, mobile string, newValidityHours int) (Session, error) {
	sess, err := e.Lookup(ctx, mobile)
	if err != nil {
		return Session{}, err
	}
	if sess.State == StateNonExistent {
		return Session{}, ErrAccountNotFound
	}

	hours := sess.User.ValidityHours
	if newValidityHours > 0 {
		hours = newValidityHours
	}
	createdAt := e.now()
	if err := e.store.RenewDemoUser(ctx, mobile, hours, createdAt); err != nil {
		return sess, storagef("renew "+mobile, err)
	}
	sess.User.ValidityHours = hours
	sess.User.CreatedAt = createdAt
	return e.sessionOf(sess.User), nil
}

// Delete removes the account row.
func (e *Engine) Delete(ctx context.Context, mobile string) error {
	if err := e.store.DeleteDemoUser(ctx, mobile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return storagef("delete "+mobile, err)
	}
	return nil
}

func (e *Engine) sessionOf(u *models.DemoUser) Session {
	expiry := u.ExpiresAt()
	state := StateActive
	if e.now().After(expiry) {
		state = StateExpired
	}
	return Session{
		User:      u,
		State:     state,
		Devices:   ParseDeviceSet(u.DeviceIDs),
		ExpiresAt: expiry,
	}
}
