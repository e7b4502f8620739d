// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/webasto-remote/wlr/wbus/transport"
)

// benchRecord is one observed W-BUS frame, timestamped relative to
// the start of the recording so a replay can reproduce the original
// cadence rather than just the byte sequence.
type benchRecord struct {
	OffsetMS int64  `cbor:"1,keyasint"`
	Header   byte   `cbor:"2,keyasint"`
	Payload  []byte `cbor:"3,keyasint"`
}

// recorder appends every frame the simulator answers to a CBOR bench
// file, for later replay against cmd/receiver without the simulator
// (or real hardware) attached. One recorder is not safe for
// concurrent use.
type recorder struct {
	f         *os.File
	enc       *cbor.Encoder
	startedAt time.Time
}

// newRecorder creates (or truncates) path and starts a recording
// clocked from now.
func newRecorder(path string, now time.Time) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("simulator: create bench recording: %w", err)
	}
	return &recorder{f: f, enc: cbor.NewEncoder(f), startedAt: now}, nil
}

// Record appends one frame at the given observation time.
func (r *recorder) Record(frame transport.Frame, at time.Time) error {
	rec := benchRecord{
		OffsetMS: at.Sub(r.startedAt).Milliseconds(),
		Header:   frame.Header,
		Payload:  frame.Payload,
	}
	return r.enc.Encode(rec)
}

func (r *recorder) Close() error {
	return r.f.Close()
}

// replayBenchFile reads every record back from path and returns them
// in recorded order, for a bench-replay command that feeds them into
// a Transport at their original cadence.
func replayBenchFile(path string) ([]benchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("simulator: open bench recording: %w", err)
	}
	defer f.Close()

	dec := cbor.NewDecoder(f)
	var records []benchRecord
	for {
		var rec benchRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("simulator: decode bench record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
