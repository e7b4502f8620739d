// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// PersistedState is everything the receiver needs to survive a
// power cycle without replaying an old command or re-probing W-BUS
// status IDs the heater has already told it it doesn't support.
// It is CBOR-encoded, the same encoding cmd/simulator uses for its
// bench recordings.
type PersistedState struct {
	LastProcessedCmdSeq uint16
	TLVSupportCache     map[uint8]bool
}

func newPersistedState() PersistedState {
	return PersistedState{TLVSupportCache: make(map[uint8]bool)}
}

// Store persists PersistedState to a single file, overwriting it
// atomically via a temp-file rename so a crash mid-write can't leave
// a half-written state file behind.
type Store struct {
	path string
}

// NewStore returns a Store backed by path. path may not yet exist;
// Load returns a zero-value PersistedState in that case.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state, returning a fresh zero state if the
// file does not exist yet.
func (s *Store) Load() (PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return newPersistedState(), nil
	}
	if err != nil {
		return PersistedState{}, fmt.Errorf("receiver: read state: %w", err)
	}

	var st PersistedState
	if err := cbor.Unmarshal(data, &st); err != nil {
		return PersistedState{}, fmt.Errorf("receiver: decode state: %w", err)
	}
	if st.TLVSupportCache == nil {
		st.TLVSupportCache = make(map[uint8]bool)
	}
	return st, nil
}

// Save writes st to disk, replacing any previous contents.
func (s *Store) Save(st PersistedState) error {
	data, err := cbor.Marshal(st)
	if err != nil {
		return fmt.Errorf("receiver: encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("receiver: write temp state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("receiver: replace state: %w", err)
	}
	return nil
}
