package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dreamplay/lineup/internal/cache"
	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/playlist"
	"github.com/dreamplay/lineup/internal/session"
	"github.com/dreamplay/lineup/internal/store"
	"github.com/dreamplay/lineup/internal/uploads"
)

// ErrBindBusy is returned when another bind for the same account holds the
// device lock.
var ErrBindBusy = errors.New("another device bind is in progress for this account")

// bindLockTTL bounds how long a crashed bind can block an account.
const bindLockTTL = 5 * time.Second

// Response is the envelope every lineup operation returns. Failures are
// reported in-band through the success flag; Data carries the lineup and
// session details on success and the expiry details on an expired account.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *Data  `json:"data,omitempty"`
}

// Data is the payload of a lineup response. DeviceIDs keeps the historical
// comma-joined wire form.
type Data struct {
	MobileNumber string           `json:"mobile_number,omitempty"`
	PartnerCode  string           `json:"partner_code,omitempty"`
	DefaultPack  string           `json:"default_pack,omitempty"`
	Status       string           `json:"status,omitempty"`
	CreatedAt    string           `json:"created_at,omitempty"`
	ValidityDate string           `json:"validity_date,omitempty"`
	ExpiredOn    string           `json:"expired_on,omitempty"`
	DeviceIDs    string           `json:"device_ids"`
	FileURL      string           `json:"file_url,omitempty"`
	PackageList  []models.Channel `json:"package_list"`
}

// Service wires the lineup flow: account row -> file resolver -> playlist
// parser -> id assigner -> session gate -> response. One instance serves
// every endpoint so the parsing and resolution behaviour cannot drift
// between handlers.
type Service struct {
	store       store.Store
	engine      *session.Engine
	resolver    uploads.Resolver
	variant     playlist.Variant
	fileBaseURL string       // optional; when set, responses carry a public file_url
	rds         *cache.Redis // optional; serialises device binds per account
}

// New creates a Service. rds may be nil, in which case device binds run
// without the cross-instance lock.
func New(s store.Store, engine *session.Engine, resolver uploads.Resolver, variant playlist.Variant, fileBaseURL string, rds *cache.Redis) *Service {
	return &Service{store: s, engine: engine, resolver: resolver, variant: variant, fileBaseURL: fileBaseURL, rds: rds}
}

// IsDemoKey reports whether an account key addresses a demo user (10-digit
// mobile number) rather than a partner code.
func IsDemoKey(accountKey string) bool {
	return session.ValidateMobile(accountKey) == nil
}

// GetLineup returns the channel lineup for an account. It is read-only: an
// unknown account is not created and no device is bound.
func (s *Service) GetLineup(ctx context.Context, accountKey string) (*Response, error) {
	if !IsDemoKey(accountKey) {
		return s.partnerLineup(ctx, accountKey, "Package retrieved successfully")
	}

	sess, err := s.engine.Lookup(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	switch sess.State {
	case session.StateNonExistent:
		return nil, session.ErrAccountNotFound
	case session.StateExpired:
		return expiredResponse(sess), nil
	}
	return s.demoLineup(ctx, sess, "User is active")
}

// Bind creates the account on first contact (resolving the default package
// for accountContext) or binds deviceID to an existing one, then returns
// the lineup. The read-check-write on the device list runs under a
// per-account lock when Redis is configured.
func (s *Service) Bind(ctx context.Context, accountKey, accountContext, deviceID string) (*Response, error) {
	if deviceID == "" {
		return nil, session.Validationf("device ID is required")
	}
	return s.withBindLock(ctx, accountKey, func() (*Response, error) {
		if !IsDemoKey(accountKey) {
			return s.bindPartner(ctx, accountKey, deviceID)
		}
		return s.bindDemo(ctx, accountKey, accountContext, deviceID)
	})
}

// Renew restarts an account's validity window. Exactly one of
// validityHours (> 0) or validUntil ("YYYY-MM-DD HH:MM:SS") may be given;
// with neither, the stored duration is kept.
func (s *Service) Renew(ctx context.Context, accountKey string, validityHours int, validUntil string) (*Response, error) {
	if !IsDemoKey(accountKey) {
		return nil, session.Validationf("validity renewal applies to demo accounts only")
	}
	if validUntil != "" {
		until, err := session.ParseTimestamp(validUntil)
		if err != nil {
			return nil, err
		}
		hours := int(math.Ceil(time.Until(until).Hours()))
		if hours <= 0 {
			return nil, session.Validationf("validity date must be in the future")
		}
		validityHours = hours
	}

	sess, err := s.engine.RenewValidity(ctx, accountKey, validityHours)
	if err != nil {
		return nil, err
	}
	return s.demoLineup(ctx, sess, "Validity renewed successfully")
}

// Unbind removes a device binding; an unknown device is a no-op.
func (s *Service) Unbind(ctx context.Context, accountKey, deviceID string) (*Response, error) {
	if deviceID == "" {
		return nil, session.Validationf("device ID is required")
	}
	return s.withBindLock(ctx, accountKey, func() (*Response, error) {
		if !IsDemoKey(accountKey) {
			return s.unbindPartner(ctx, accountKey, deviceID)
		}
		sess, err := s.engine.RemoveDevice(ctx, accountKey, deviceID)
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: "Device removed successfully",
			Data: &Data{
				MobileNumber: accountKey,
				DeviceIDs:    sess.Devices.Join(),
				PackageList:  []models.Channel{},
			},
		}, nil
	})
}

// Delete removes a demo account entirely.
func (s *Service) Delete(ctx context.Context, accountKey string) (*Response, error) {
	if !IsDemoKey(accountKey) {
		return nil, session.Validationf("delete applies to demo accounts only")
	}
	if err := s.engine.Delete(ctx, accountKey); err != nil {
		return nil, err
	}
	return &Response{Success: true, Message: "Demo user deleted successfully"}, nil
}

// --- demo accounts ---

func (s *Service) bindDemo(ctx context.Context, mobile, stateName, deviceID string) (*Response, error) {
	sess, err := s.engine.Lookup(ctx, mobile)
	if err != nil {
		return nil, err
	}

	switch sess.State {
	case session.StateNonExistent:
		created, pkg, err := s.engine.CreateOrBind(ctx, mobile, stateName, deviceID)
		if err != nil {
			return nil, err
		}
		channels, err := s.loadLineup(pkg.FileName)
		if err != nil {
			return nil, err
		}
		data := demoData(created, channels)
		data.FileURL = s.fileURL(pkg.FileName)
		return &Response{
			Success: true,
			Message: "Demo user added successfully",
			Data:    data,
		}, nil

	case session.StateExpired:
		return expiredResponse(sess), nil
	}

	sess, err = s.engine.AddDevice(ctx, mobile, deviceID)
	if err != nil {
		return nil, err
	}
	return s.demoLineup(ctx, sess, "Device added successfully")
}

func (s *Service) demoLineup(ctx context.Context, sess session.Session, message string) (*Response, error) {
	pkg, err := s.store.GetDefaultPackageByID(ctx, sess.User.DefaultPackID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: default package %d", session.ErrPackageNotFound, sess.User.DefaultPackID)
		}
		return nil, err
	}
	channels, err := s.loadLineup(pkg.FileName)
	if err != nil {
		return nil, err
	}
	data := demoData(sess, channels)
	data.DefaultPack = pkg.PackageName
	data.FileURL = s.fileURL(pkg.FileName)
	return &Response{Success: true, Message: message, Data: data}, nil
}

func demoData(sess session.Session, channels []models.Channel) *Data {
	u := sess.User
	return &Data{
		MobileNumber: u.MobileNumber,
		DefaultPack:  u.DefaultPack,
		Status:       sess.State.String(),
		CreatedAt:    u.CreatedAt.Format(models.TimeFormat),
		ValidityDate: sess.ExpiresAt.Format(models.TimeFormat),
		DeviceIDs:    sess.Devices.Join(),
		PackageList:  channels,
	}
}

func expiredResponse(sess session.Session) *Response {
	return &Response{
		Success: false,
		Message: "User is expired",
		Data: &Data{
			MobileNumber: sess.User.MobileNumber,
			Status:       models.StatusExpired,
			ExpiredOn:    sess.ExpiresAt.Format(models.TimeFormat),
			DeviceIDs:    sess.Devices.Join(),
			PackageList:  []models.Channel{},
		},
	}
}

// --- partner accounts ---

func (s *Service) partnerLineup(ctx context.Context, code, message string) (*Response, error) {
	pkg, err := s.store.GetPartnerPackage(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, session.ErrPackageNotFound
		}
		return nil, err
	}
	channels, err := s.loadLineup(pkg.FileName)
	if err != nil {
		return nil, err
	}
	return &Response{
		Success: true,
		Message: message,
		Data: &Data{
			PartnerCode: code,
			DefaultPack: pkg.PackageName,
			DeviceIDs:   pkg.DeviceIDs,
			FileURL:     s.fileURL(pkg.FileName),
			PackageList: channels,
		},
	}, nil
}

func (s *Service) bindPartner(ctx context.Context, code, deviceID string) (*Response, error) {
	pkg, err := s.store.GetPartnerPackage(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, session.ErrPackageNotFound
		}
		return nil, err
	}
	devices := session.ParseDeviceSet(pkg.DeviceIDs)
	if !devices.Contains(deviceID) {
		if err := devices.Add(deviceID, s.engine.Policy()); err != nil {
			return nil, err
		}
		if err := s.store.UpdatePartnerDevices(ctx, code, devices.Join()); err != nil {
			return nil, err
		}
		pkg.DeviceIDs = devices.Join()
	}
	return s.partnerLineup(ctx, code, "Device added successfully")
}

func (s *Service) unbindPartner(ctx context.Context, code, deviceID string) (*Response, error) {
	pkg, err := s.store.GetPartnerPackage(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, session.ErrPackageNotFound
		}
		return nil, err
	}
	devices := session.ParseDeviceSet(pkg.DeviceIDs)
	if devices.Contains(deviceID) {
		devices.Remove(deviceID)
		if err := s.store.UpdatePartnerDevices(ctx, code, devices.Join()); err != nil {
			return nil, err
		}
	}
	return &Response{
		Success: true,
		Message: "Device removed successfully",
		Data: &Data{
			PartnerCode: code,
			DeviceIDs:   devices.Join(),
			PackageList: []models.Channel{},
		},
	}, nil
}

// --- lineup loading ---

// loadLineup resolves the package's playlist blob and parses it. Resolver
// failure is the only "no playlist available" condition; a blob that parses
// to zero channels is a valid, empty lineup.
func (s *Service) loadLineup(fileRef string) ([]models.Channel, error) {
	if fileRef == "" {
		return nil, fmt.Errorf("%w: package has no playlist file", uploads.ErrNotFound)
	}
	content, err := s.resolver.Resolve(fileRef)
	if err != nil {
		return nil, err
	}
	channels := playlist.AssignIDs(playlist.Parse(string(content), s.variant))
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// fileURL builds the public download URL for a playlist reference; empty
// when no base URL is configured.
func (s *Service) fileURL(fileRef string) string {
	if s.fileBaseURL == "" {
		return ""
	}
	return uploads.FileURL(s.fileBaseURL, fileRef)
}

// withBindLock serialises device mutations per account via Redis when
// configured. Without Redis the device-list read-check-write can race
// across instances.
func (s *Service) withBindLock(ctx context.Context, accountKey string, fn func() (*Response, error)) (*Response, error) {
	if s.rds == nil {
		return fn()
	}
	unlock, err := cache.TryLock(ctx, s.rds, cache.BindLockKey(accountKey), bindLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			return nil, ErrBindBusy
		}
		return nil, err
	}
	defer unlock()
	return fn()
}
