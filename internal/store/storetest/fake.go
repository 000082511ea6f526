// Package storetest provides an in-memory Store for tests.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/store"
)

// Fake is an in-memory store.Store. Zero value is usable; populate the
// exported fields directly. PingErr makes Ping (and nothing else) fail,
// mimicking connectivity loss.
type Fake struct {
	mu sync.Mutex

	States          []models.State
	DefaultPackages []models.DefaultPackage
	PartnerPackages []models.PartnerPackage
	DemoUsers       map[string]*models.DemoUser
	Messages        []models.ScrollingMessage

	PingErr error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{DemoUsers: make(map[string]*models.DemoUser)}
}

func (f *Fake) GetStateByName(_ context.Context, name string) (*models.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.States {
		if s.Name == name {
			out := s
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetDefaultPackageByState(_ context.Context, stateID int64) (*models.DefaultPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.DefaultPackages {
		if p.StateID == stateID {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetDefaultPackageByID(_ context.Context, id int64) (*models.DefaultPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.DefaultPackages {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetDemoUser(_ context.Context, mobile string) (*models.DemoUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.DemoUsers[mobile]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *Fake) CreateDemoUser(_ context.Context, u *models.DemoUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DemoUsers == nil {
		f.DemoUsers = make(map[string]*models.DemoUser)
	}
	u.ID = int64(len(f.DemoUsers) + 1)
	cp := *u
	f.DemoUsers[u.MobileNumber] = &cp
	return nil
}

func (f *Fake) UpdateDemoUserDevices(_ context.Context, mobile, deviceIDs string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.DemoUsers[mobile]
	if !ok {
		return store.ErrNotFound
	}
	u.DeviceIDs = deviceIDs
	return nil
}

func (f *Fake) RenewDemoUser(_ context.Context, mobile string, validityHours int, createdAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.DemoUsers[mobile]
	if !ok {
		return store.ErrNotFound
	}
	u.ValidityHours = validityHours
	u.CreatedAt = createdAt
	return nil
}

func (f *Fake) DeleteDemoUser(_ context.Context, mobile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.DemoUsers[mobile]; !ok {
		return store.ErrNotFound
	}
	delete(f.DemoUsers, mobile)
	return nil
}

func (f *Fake) GetPartnerPackage(_ context.Context, code string) (*models.PartnerPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.PartnerPackages {
		if p.PartnerCode == code {
			out := p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) UpdatePartnerDevices(_ context.Context, code, deviceIDs string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.PartnerPackages {
		if f.PartnerPackages[i].PartnerCode == code {
			f.PartnerPackages[i].DeviceIDs = deviceIDs
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *Fake) ListScrollingMessages(_ context.Context) ([]models.ScrollingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ScrollingMessage, len(f.Messages))
	copy(out, f.Messages)
	return out, nil
}

func (f *Fake) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}
