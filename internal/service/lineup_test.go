package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/playlist"
	"github.com/dreamplay/lineup/internal/session"
	"github.com/dreamplay/lineup/internal/store/storetest"
	"github.com/dreamplay/lineup/internal/uploads"
)

const (
	demoMobile  = "9876543210"
	partnerCode = "DREAMPLAY01"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 channelName="News One" channelCategory="News" categoryId="5",News One
http://cdn.example.com/news1.m3u8
#EXTINF:-1 channelName="Sports One",Sports One
http://cdn.example.com/sports1.m3u8
`

func newFixture(t *testing.T) (*Service, *storetest.Fake) {
	return newFixtureWithPolicy(t, session.PolicyReject)
}

func newFixtureWithPolicy(t *testing.T, policy session.Policy) (*Service, *storetest.Fake) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "abcdef0123456789_lineup.m3u"), []byte(samplePlaylist), 0o644))

	f := storetest.New()
	f.States = []models.State{{ID: 1, Name: "Kerala"}}
	f.DefaultPackages = []models.DefaultPackage{{
		ID: 10, StateID: 1, PackageName: "Kerala Basic", FileName: "lineup.m3u", ValidityHours: 24,
	}}
	f.PartnerPackages = []models.PartnerPackage{{
		ID: 1, PartnerCode: partnerCode, PackageName: "Partner Gold",
		FileName: "lineup.m3u", DeviceIDs: "stb-1",
	}}

	engine := session.NewEngine(f, policy)
	svc := New(f, engine, uploads.Resolver{Dir: dir}, playlist.VariantFull, "https://cdn.example.com/files", nil)
	return svc, f
}

func activeDemoUser(createdAt time.Time) *models.DemoUser {
	return &models.DemoUser{
		MobileNumber: demoMobile, StateID: 1, DefaultPackID: 10,
		DefaultPack: "Kerala Basic", ValidityHours: 24, FileName: "lineup.m3u",
		DeviceIDs: "dev1", CreatedAt: createdAt,
	}
}

func TestIsDemoKey(t *testing.T) {
	assert.True(t, IsDemoKey("9876543210"))
	assert.False(t, IsDemoKey(partnerCode))
	assert.False(t, IsDemoKey("98765"))
}

func TestGetLineupActiveDemo(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())

	resp, err := svc.GetLineup(context.Background(), demoMobile)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "User is active", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, demoMobile, resp.Data.MobileNumber)
	assert.Equal(t, "Kerala Basic", resp.Data.DefaultPack)
	assert.Equal(t, models.StatusActive, resp.Data.Status)
	assert.Equal(t, "dev1", resp.Data.DeviceIDs)
	assert.Equal(t, "https://cdn.example.com/files?file_name=lineup.m3u", resp.Data.FileURL)
	require.Len(t, resp.Data.PackageList, 2)
	assert.Equal(t, "1", resp.Data.PackageList[0].ChannelID)
	assert.Equal(t, "News One", resp.Data.PackageList[0].ChannelName)
	assert.Equal(t, "2", resp.Data.PackageList[1].ChannelID)
}

func TestGetLineupUnknownDemo(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.GetLineup(context.Background(), demoMobile)
	assert.ErrorIs(t, err, session.ErrAccountNotFound)
}

func TestGetLineupExpiredDemo(t *testing.T) {
	svc, f := newFixture(t)
	created := time.Now().Add(-48 * time.Hour)
	f.DemoUsers[demoMobile] = activeDemoUser(created)

	resp, err := svc.GetLineup(context.Background(), demoMobile)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "User is expired", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, models.StatusExpired, resp.Data.Status)
	assert.Equal(t, created.Add(24*time.Hour).Format(models.TimeFormat), resp.Data.ExpiredOn)
	assert.Empty(t, resp.Data.PackageList)
}

func TestGetLineupPartner(t *testing.T) {
	svc, _ := newFixture(t)

	resp, err := svc.GetLineup(context.Background(), partnerCode)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, partnerCode, resp.Data.PartnerCode)
	assert.Equal(t, "Partner Gold", resp.Data.DefaultPack)
	assert.Equal(t, "stb-1", resp.Data.DeviceIDs)
	assert.Len(t, resp.Data.PackageList, 2)
}

func TestGetLineupUnknownPartner(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.GetLineup(context.Background(), "NOSUCHCODE")
	assert.ErrorIs(t, err, session.ErrPackageNotFound)
}

func TestBindCreatesDemoUser(t *testing.T) {
	svc, f := newFixture(t)

	resp, err := svc.Bind(context.Background(), demoMobile, "Kerala", "dev1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Demo user added successfully", resp.Message)
	assert.Equal(t, "Kerala Basic", resp.Data.DefaultPack)
	assert.Equal(t, "dev1", resp.Data.DeviceIDs)
	assert.Len(t, resp.Data.PackageList, 2)

	u, ok := f.DemoUsers[demoMobile]
	require.True(t, ok)
	assert.Equal(t, "dev1", u.DeviceIDs)
}

func TestBindAddsSecondDevice(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())

	resp, err := svc.Bind(context.Background(), demoMobile, "Kerala", "dev2")
	require.NoError(t, err)
	assert.Equal(t, "Device added successfully", resp.Message)
	assert.Equal(t, "dev1,dev2", resp.Data.DeviceIDs)
}

func TestBindRejectsThirdDevice(t *testing.T) {
	svc, f := newFixture(t)
	u := activeDemoUser(time.Now())
	u.DeviceIDs = "dev1,dev2"
	f.DemoUsers[demoMobile] = u

	_, err := svc.Bind(context.Background(), demoMobile, "Kerala", "dev3")
	assert.ErrorIs(t, err, session.ErrDeviceLimit)
}

func TestBindRequiresDeviceID(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Bind(context.Background(), demoMobile, "Kerala", "")
	assert.True(t, session.IsValidation(err))
}

func TestBindExpiredDemoReportsExpiry(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now().Add(-48 * time.Hour))

	resp, err := svc.Bind(context.Background(), demoMobile, "Kerala", "dev2")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "User is expired", resp.Message)
	// The expired account keeps its device list untouched.
	assert.Equal(t, "dev1", f.DemoUsers[demoMobile].DeviceIDs)
}

func TestBindPartnerDevice(t *testing.T) {
	svc, f := newFixture(t)

	resp, err := svc.Bind(context.Background(), partnerCode, "", "stb-2")
	require.NoError(t, err)
	assert.Equal(t, "Device added successfully", resp.Message)
	assert.Equal(t, "stb-1,stb-2", resp.Data.DeviceIDs)
	assert.Equal(t, "stb-1,stb-2", f.PartnerPackages[0].DeviceIDs)

	_, err = svc.Bind(context.Background(), partnerCode, "", "stb-3")
	assert.ErrorIs(t, err, session.ErrDeviceLimit)
}

func TestBindPartnerFollowsEvictOldestPolicy(t *testing.T) {
	svc, f := newFixtureWithPolicy(t, session.PolicyEvictOldest)
	f.PartnerPackages[0].DeviceIDs = "stb-1,stb-2"

	// Same configured policy as the demo path: a full set evicts, never rejects.
	resp, err := svc.Bind(context.Background(), partnerCode, "", "stb-3")
	require.NoError(t, err)
	assert.Equal(t, "Device added successfully", resp.Message)
	assert.Equal(t, "stb-2,stb-3", resp.Data.DeviceIDs)
	assert.Equal(t, "stb-2,stb-3", f.PartnerPackages[0].DeviceIDs)
}

func TestRenewWithValidityDate(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now().Add(-48 * time.Hour))

	until := time.Now().Add(72 * time.Hour).Format(models.TimeFormat)
	resp, err := svc.Renew(context.Background(), demoMobile, 0, until)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Validity renewed successfully", resp.Message)
	assert.Equal(t, models.StatusActive, resp.Data.Status)
	assert.Equal(t, 72, f.DemoUsers[demoMobile].ValidityHours)
}

func TestRenewRejectsPastDate(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())

	past := time.Now().Add(-time.Hour).Format(models.TimeFormat)
	_, err := svc.Renew(context.Background(), demoMobile, 0, past)
	assert.True(t, session.IsValidation(err))
}

func TestRenewPartnerRejected(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Renew(context.Background(), partnerCode, 24, "")
	assert.True(t, session.IsValidation(err))
}

func TestUnbindDemoDevice(t *testing.T) {
	svc, f := newFixture(t)
	u := activeDemoUser(time.Now())
	u.DeviceIDs = "dev1,dev2"
	f.DemoUsers[demoMobile] = u

	resp, err := svc.Unbind(context.Background(), demoMobile, "dev1")
	require.NoError(t, err)
	assert.Equal(t, "Device removed successfully", resp.Message)
	assert.Equal(t, "dev2", resp.Data.DeviceIDs)
	assert.Equal(t, "dev2", f.DemoUsers[demoMobile].DeviceIDs)
}

func TestUnbindPartnerDevice(t *testing.T) {
	svc, f := newFixture(t)

	resp, err := svc.Unbind(context.Background(), partnerCode, "stb-1")
	require.NoError(t, err)
	assert.Equal(t, "Device removed successfully", resp.Message)
	assert.Empty(t, resp.Data.DeviceIDs)
	assert.Empty(t, f.PartnerPackages[0].DeviceIDs)
}

func TestDeleteDemoUser(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())

	resp, err := svc.Delete(context.Background(), demoMobile)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Demo user deleted successfully", resp.Message)
	assert.NotContains(t, f.DemoUsers, demoMobile)

	_, err = svc.Delete(context.Background(), demoMobile)
	assert.ErrorIs(t, err, session.ErrAccountNotFound)
}

func TestMissingPlaylistFile(t *testing.T) {
	svc, f := newFixture(t)
	f.DefaultPackages[0].FileName = "missing.m3u"
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())

	_, err := svc.GetLineup(context.Background(), demoMobile)
	assert.ErrorIs(t, err, uploads.ErrNotFound)
}

func TestEmptyPlaylistIsValidLineup(t *testing.T) {
	svc, f := newFixture(t)
	f.DemoUsers[demoMobile] = activeDemoUser(time.Now())
	dir := svc.resolver.Dir
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "ffffffffffffffff_empty.m3u"), []byte("#EXTM3U\n"), 0o644))
	f.DefaultPackages[0].FileName = "empty.m3u"

	resp, err := svc.GetLineup(context.Background(), demoMobile)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data.PackageList)
	assert.Empty(t, resp.Data.PackageList)
}
