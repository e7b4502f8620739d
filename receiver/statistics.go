// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"fmt"
	"time"
)

// Statistics tracks frame outcomes across a Receiver's lifetime, in
// the same spirit as the protocol decoder's packet statistics: a
// plain counter struct with a formatted summary, updated inline as
// frames are handled rather than computed after the fact.
type Statistics struct {
	StartTime time.Time

	FramesSeen     uint64
	DecodeErrors   uint64
	ReplaysDropped uint64
	CommandsRun    uint64
	AcksSent       uint64
}

func newStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Receiver Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames Seen:      %8d\n", s.FramesSeen)
	result += fmt.Sprintf("Commands Run:     %8d\n", s.CommandsRun)
	result += fmt.Sprintf("Acks Sent:        %8d\n", s.AcksSent)
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:    %8d\n", s.DecodeErrors)
	}
	if s.ReplaysDropped > 0 {
		result += fmt.Sprintf("Replays Dropped:  %8d\n", s.ReplaysDropped)
	}
	return result
}
