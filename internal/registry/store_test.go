package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".imirun", "instances.json"))
}

func TestGetMissingIndex(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(0)
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, 0, notFound.Index)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	launched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Index:        1,
		InstanceID:   "i-0abc123",
		PublicIP:     "ec2-54-1-2-3.compute-1.amazonaws.com",
		InstanceType: "t3.micro",
		State:        StateRunning,
		LaunchedAt:   &launched,
		UpdatedAt:    time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	}
	require.NoError(t, s.Put(rec))

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// A fresh store over the same file sees the same record.
	reopened := NewStore(s.Path())
	got, err = reopened.Get(1)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestLaunchedAtOmittedWhenUnset(t *testing.T) {
	// A record with no launch time must not serialize a zero timestamp.
	s := newTestStore(t)
	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-noat", State: StatePending}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "launched_at")
	assert.NotContains(t, string(data), "0001-01-01")

	launched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-noat", State: StateRunning, LaunchedAt: &launched}))

	data, err = os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"launched_at": "2026-03-01T12:00:00Z"`)
}

func TestPutReplacesExisting(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-old", State: StatePending}))
	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-new", State: StateRunning}))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "i-new", recs[0].InstanceID)
}

func TestDeleteLeavesOtherIndices(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-zero", State: StateRunning}))
	require.NoError(t, s.Put(Record{Index: 1, InstanceID: "i-one", State: StateRunning}))

	require.NoError(t, s.Delete(0))

	_, err := s.Get(0)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "i-one", got.InstanceID)
}

func TestDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	var notFound *NotFoundError
	assert.True(t, errors.As(s.Delete(7), &notFound))
}

func TestListOrderedByIndex(t *testing.T) {
	s := newTestStore(t)

	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, s.Put(Record{Index: idx, State: StatePending}))
	}

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i, rec.Index)
	}
}

func TestRegistryUnchangedWhenPutNeverHappens(t *testing.T) {
	// The handler contract: provider call fails -> Put is never called ->
	// registry bytes are identical to the pre-call state.
	s := newTestStore(t)
	require.NoError(t, s.Put(Record{Index: 0, InstanceID: "i-keep", State: StateStopped}))

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	// Simulated failed action: read, then bail without mutating.
	_, err = s.Get(0)
	require.NoError(t, err)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(Record{Index: 0, State: StatePending}))
	require.NoError(t, s.Put(Record{Index: 0, State: StateRunning}))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"instances.json", "instances.json.lock"}, names)
}

func TestAddress(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		want    string
		wantErr bool
	}{
		{
			name: "running with ip",
			rec:  Record{Index: 0, PublicIP: "1.2.3.4", State: StateRunning},
			want: "1.2.3.4",
		},
		{
			name:    "running without ip",
			rec:     Record{Index: 0, State: StateRunning},
			wantErr: true,
		},
		{
			name:    "stopped",
			rec:     Record{Index: 0, PublicIP: "1.2.3.4", State: StateStopped},
			wantErr: true,
		},
		{
			name:    "terminated",
			rec:     Record{Index: 0, State: StateTerminated},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := tt.rec.Address()
			if tt.wantErr {
				var noAddr *NoAddressError
				require.True(t, errors.As(err, &noAddr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, addr)
			}
		})
	}
}
