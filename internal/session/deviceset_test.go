package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeviceSet(t *testing.T) {
	s := ParseDeviceSet(" dev1 , dev2 ,, dev1 ")
	assert.Equal(t, []string{"dev1", "dev2"}, s.IDs())
	assert.Equal(t, "dev1,dev2", s.Join())

	assert.Equal(t, 0, ParseDeviceSet("").Len())
}

func TestDeviceSetAddRejectPolicy(t *testing.T) {
	var s DeviceSet
	require.NoError(t, s.Add("dev1", PolicyReject))
	require.NoError(t, s.Add("dev2", PolicyReject))

	err := s.Add("dev3", PolicyReject)
	assert.ErrorIs(t, err, ErrDeviceLimit)
	assert.Equal(t, []string{"dev1", "dev2"}, s.IDs())
}

func TestDeviceSetAddEvictOldestPolicy(t *testing.T) {
	var s DeviceSet
	require.NoError(t, s.Add("dev1", PolicyEvictOldest))
	require.NoError(t, s.Add("dev2", PolicyEvictOldest))
	require.NoError(t, s.Add("dev3", PolicyEvictOldest))

	assert.Equal(t, []string{"dev2", "dev3"}, s.IDs())
}

func TestDeviceSetAddExistingIsNoop(t *testing.T) {
	var s DeviceSet
	require.NoError(t, s.Add("dev1", PolicyReject))
	require.NoError(t, s.Add("dev2", PolicyReject))
	require.NoError(t, s.Add("dev1", PolicyReject))
	assert.Equal(t, []string{"dev1", "dev2"}, s.IDs())
}

func TestDeviceSetRemove(t *testing.T) {
	s := ParseDeviceSet("dev1,dev2")
	s.Remove("dev1")
	assert.Equal(t, []string{"dev2"}, s.IDs())

	// Absent ids are ignored.
	s.Remove("ghost")
	assert.Equal(t, []string{"dev2"}, s.IDs())
}
