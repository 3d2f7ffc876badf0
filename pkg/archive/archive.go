// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package archive keeps downloaded dives in a local pebble database so that
// repeated dumps only fetch dives that are new on the device.
package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"
	"github.com/segmentio/ksuid"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

const keyPrefix = "dive/"

// ErrNotFound is returned by Get for a key that is not archived
var ErrNotFound = errors.New("dive not archived")

// Record is one archived dive
type Record struct {
	RunID        ksuid.KSUID `cbor:"runId"`
	DiveID       uint16      `cbor:"diveId"`
	DownloadedAt time.Time   `cbor:"downloadedAt"`
	Dive         *ratio.Dive `cbor:"dive"`
}

// NewRecord wraps a dive downloaded during run
func NewRecord(run ksuid.KSUID, d *ratio.Dive) Record {
	return Record{
		RunID:        run,
		DiveID:       d.ID,
		DownloadedAt: time.Now().UTC(),
		Dive:         d,
	}
}

// Key returns the archive key of the record's dive
func (r Record) Key() string {
	return Key(r.Dive)
}

// Key identifies a dive by its start time rather than by its device id,
// which the device reassigns as old dives are overwritten:
// dive/<UTCStartingTimeS>/<monotonicTimeS>, zero padded so keys sort by time.
func Key(d *ratio.Dive) string {
	return fmt.Sprintf("%s%010d/%010d", keyPrefix, d.UTCStartingTimeS, d.MonotonicTimeS)
}

// Archive is a pebble-backed dive store
type Archive struct {
	db  *pebble.DB
	enc cbor.EncMode
}

// Open opens or creates the archive at path
func Open(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db, enc: enc}, nil
}

// Has reports whether the dive described by header is archived
func (a *Archive) Has(header *ratio.Dive) (bool, error) {
	_, closer, err := a.db.Get([]byte(Key(header)))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Put stores rec, replacing any record with the same key
func (a *Archive) Put(rec Record) error {
	if rec.Dive == nil {
		return errors.New("record has no dive")
	}

	data, err := a.enc.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode dive %d: %w", rec.DiveID, err)
	}
	return a.db.Set([]byte(rec.Key()), data, pebble.Sync)
}

// Get loads the record stored under key
func (a *Archive) Get(key string) (*Record, error) {
	data, closer, err := a.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return decodeRecord(data)
}

// List returns every archived record, oldest dive first
func (a *Archive) List() ([]Record, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte("dive0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	records := []Record{}
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Key(), err)
		}
		records = append(records, *rec)
	}
	return records, iter.Error()
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Dive == nil {
		return nil, errors.New("decode record: missing dive")
	}
	return &rec, nil
}
