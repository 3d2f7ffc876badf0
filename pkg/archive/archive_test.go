// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package archive

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func testDive(id uint16, utc uint32) *ratio.Dive {
	return &ratio.Dive{
		ID:               id,
		DiveSamples:      2,
		MonotonicTimeS:   145036,
		UTCStartingTimeS: utc,
		LastSurfaceTimeS: 4294967295,
		Water:            ratio.WaterFresh,
		SoftwareVersion:  40126016,
		Samples: []ratio.DiveSample{
			{RuntimeS: 10, DepthDm: 19, CompassLog: -5},
			{RuntimeS: 20, DepthDm: 28, TissueGroupPercent: [16]uint8{15: 40}},
		},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "dive/0409911594/0000145036", Key(testDive(1, 409911594)))
}

func TestArchive_PutGet(t *testing.T) {
	a := openTestArchive(t)
	run := ksuid.New()
	dive := testDive(1, 409911594)

	has, err := a.Has(dive)
	require.NoError(t, err)
	assert.False(t, has)

	rec := NewRecord(run, dive)
	require.NoError(t, a.Put(rec))

	has, err = a.Has(&ratio.Dive{UTCStartingTimeS: 409911594, MonotonicTimeS: 145036})
	require.NoError(t, err)
	assert.True(t, has, "lookup is by start time, not device id")

	got, err := a.Get(rec.Key())
	require.NoError(t, err)
	assert.Equal(t, run, got.RunID)
	assert.Equal(t, uint16(1), got.DiveID)
	assert.WithinDuration(t, rec.DownloadedAt, got.DownloadedAt, time.Millisecond)
	assert.Equal(t, dive, got.Dive)
}

func TestArchive_GetMissing(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.Get("dive/0000000001/0000000001")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestArchive_ListOrdered(t *testing.T) {
	a := openTestArchive(t)
	run := ksuid.New()

	for _, d := range []*ratio.Dive{testDive(3, 409990000), testDive(1, 409911594), testDive(2, 409950000)} {
		require.NoError(t, a.Put(NewRecord(run, d)))
	}

	records, err := a.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, uint16(1), records[0].DiveID)
	assert.Equal(t, uint16(2), records[1].DiveID)
	assert.Equal(t, uint16(3), records[2].DiveID)
}

func TestArchive_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive")

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Put(NewRecord(ksuid.New(), testDive(1, 409911594))))
	require.NoError(t, a.Close())

	a, err = Open(path)
	require.NoError(t, err)
	defer a.Close()

	records, err := a.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestArchive_PutWithoutDive(t *testing.T) {
	a := openTestArchive(t)
	assert.Error(t, a.Put(Record{RunID: ksuid.New()}))
}
