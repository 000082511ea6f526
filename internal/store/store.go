package store

import (
	"context"
	"errors"
	"time"

	"github.com/dreamplay/lineup/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines persistence for states, packages, accounts, and scrolling
// messages. Every operation is scoped per call; there is no ambient shared
// handle.
type Store interface {
	// GetStateByName returns a state by its name.
	GetStateByName(ctx context.Context, name string) (*models.State, error)
	// GetDefaultPackageByState returns the default package configured for a state.
	GetDefaultPackageByState(ctx context.Context, stateID int64) (*models.DefaultPackage, error)
	// GetDefaultPackageByID returns a default package by id.
	GetDefaultPackageByID(ctx context.Context, id int64) (*models.DefaultPackage, error)

	// GetDemoUser returns a demo user by mobile number.
	GetDemoUser(ctx context.Context, mobile string) (*models.DemoUser, error)
	// CreateDemoUser inserts a demo user row; the row carries the initial
	// device binding so creation and bind commit together.
	CreateDemoUser(ctx context.Context, u *models.DemoUser) error
	// UpdateDemoUserDevices replaces the persisted device list.
	UpdateDemoUserDevices(ctx context.Context, mobile, deviceIDs string) error
	// RenewDemoUser resets the validity window start and duration.
	RenewDemoUser(ctx context.Context, mobile string, validityHours int, createdAt time.Time) error
	// DeleteDemoUser removes a demo user row.
	DeleteDemoUser(ctx context.Context, mobile string) error

	// GetPartnerPackage returns the package bound to a partner code.
	GetPartnerPackage(ctx context.Context, code string) (*models.PartnerPackage, error)
	// UpdatePartnerDevices replaces the device list on a partner package.
	UpdatePartnerDevices(ctx context.Context, code, deviceIDs string) error

	// ListScrollingMessages returns all scheduled scrolling messages.
	ListScrollingMessages(ctx context.Context) ([]models.ScrollingMessage, error)

	// Ping checks store connectivity; the push scheduler calls it each cycle.
	Ping(ctx context.Context) error
}
