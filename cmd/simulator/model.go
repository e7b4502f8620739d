// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"math/rand"
	"time"
)

// simState is the heater's internal operating state, mirroring the
// opstate codes a real W-BUS heater reports.
type simState uint8

const (
	stateOff simState = iota
	stateStarting
	stateRunning
	stateCooling
	stateError
	stateTempOvershoot
	stateFlameOutRestart
)

func (s simState) String() string {
	switch s {
	case stateOff:
		return "off"
	case stateStarting:
		return "starting"
	case stateRunning:
		return "running"
	case stateCooling:
		return "cooling"
	case stateError:
		return "error"
	case stateTempOvershoot:
		return "temp_overshoot"
	case stateFlameOutRestart:
		return "flame_out_restart"
	default:
		return "unknown"
	}
}

func (s simState) opStateCode() uint8 {
	switch s {
	case stateOff:
		return 0x04
	case stateStarting, stateFlameOutRestart:
		return 0x01
	case stateRunning, stateTempOvershoot:
		return 0x06
	case stateCooling:
		return 0x02
	case stateError:
		return 0xFF
	default:
		return 0x04
	}
}

// scenario picks which fault, if any, the model injects during its
// next run, so the simulator exercises more than the happy path.
type scenario uint8

const (
	scenarioNormal scenario = iota
	scenarioFlameFlutter
	scenarioHighTemp
	scenarioVoltageDropped
	scenarioErrorShutdown
)

func (s scenario) String() string {
	switch s {
	case scenarioNormal:
		return "normal"
	case scenarioFlameFlutter:
		return "flame_flutter"
	case scenarioHighTemp:
		return "high_temp"
	case scenarioVoltageDropped:
		return "voltage_dropped"
	case scenarioErrorShutdown:
		return "error_shutdown"
	default:
		return "unknown"
	}
}

// model is a small physical stand-in for a parking heater: enough
// state to drive plausible temperature/voltage/power telemetry and
// the handful of fault scenarios the original bench harness exercised.
type model struct {
	rng *rand.Rand

	state          simState
	stateSince     time.Time
	scenario       scenario
	scenarioSince  time.Time
	scenarioFired  bool
	requestedMins  uint8

	ambientC   float64
	tempC      float64
	targetC    float64
	voltageMV  uint16
	powerX10   uint16
	fanRPM     uint16
	glowMOhm   uint16
	flame      bool
}

func newModel() *model {
	m := &model{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ambientC: 20.0,
		tempC:    20.0,
		targetC:  75.0,
		glowMOhm: 1800,
	}
	m.setState(stateOff, time.Now())
	return m
}

func (m *model) setState(s simState, now time.Time) {
	m.state = s
	m.stateSince = now
}

func (m *model) pickScenario(now time.Time) {
	roll := m.rng.Intn(100)
	switch {
	case roll < 60:
		m.scenario = scenarioNormal
	case roll < 75:
		m.scenario = scenarioFlameFlutter
	case roll < 85:
		m.scenario = scenarioHighTemp
	case roll < 95:
		m.scenario = scenarioVoltageDropped
	default:
		m.scenario = scenarioErrorShutdown
	}
	m.scenarioSince = now
	m.scenarioFired = false
}

// start begins a heating run and records the requested minutes. The
// model does not end the run when that time has elapsed; only stop
// ends it.
func (m *model) start(minutes uint8, now time.Time) {
	m.requestedMins = minutes
	m.setState(stateStarting, now)
	m.pickScenario(now)
}

// stop begins the cooldown tail instead of cutting power immediately,
// matching how a real combustion heater purges itself.
func (m *model) stop(now time.Time) {
	if m.state != stateOff {
		m.setState(stateCooling, now)
	}
}

// tick advances the model by one poll interval. now is passed in
// rather than read from the clock so tests can drive the model's
// timing themselves.
func (m *model) tick(now time.Time) {
	elapsed := now.Sub(m.stateSince)
	tempNoise := (m.rng.Float64()*2 - 1) * 1.0
	powerNoise := float64(m.rng.Intn(30) - 15)
	voltageNoise := int(m.rng.Intn(100) - 50)

	switch m.state {
	case stateStarting:
		switch {
		case m.scenario == scenarioFlameFlutter && !m.scenarioFired && elapsed > 8*time.Second:
			m.scenarioFired = true
			m.setState(stateFlameOutRestart, now)
		case m.scenario == scenarioErrorShutdown && !m.scenarioFired && elapsed > 10*time.Second:
			m.scenarioFired = true
			m.setState(stateError, now)
		case elapsed > 15*time.Second:
			m.setState(stateRunning, now)
			m.pickScenario(now)
		}
	case stateRunning:
		if m.scenario == scenarioHighTemp && !m.scenarioFired && m.tempC > 80 {
			m.scenarioFired = true
			m.targetC = 85
			m.setState(stateTempOvershoot, now)
		}
	case stateTempOvershoot:
		if m.tempC < 70 {
			m.targetC = 75
			m.setState(stateRunning, now)
		}
	case stateFlameOutRestart:
		if elapsed > 3*time.Second {
			m.setState(stateStarting, now)
		}
	case stateCooling:
		if elapsed > 20*time.Second {
			m.setState(stateOff, now)
		}
	case stateError:
		if elapsed > 5*time.Second {
			m.setState(stateOff, now)
		}
	}

	switch m.state {
	case stateOff:
		m.flame = false
		m.powerX10, m.fanRPM = 0, 0
		m.tempC += (m.ambientC-m.tempC)*0.08 + tempNoise
	case stateStarting:
		m.flame = false
		m.powerX10 = clampU16(250+powerNoise, 0, 300)
		m.fanRPM = uint16(1800 + m.rng.Intn(200) - 100)
		m.tempC += (m.targetC-m.tempC)*0.03 + tempNoise
	case stateRunning:
		if m.scenario == scenarioFlameFlutter {
			phase := (now.UnixMilli() / 500) % 4
			m.flame = phase < 3
		} else {
			m.flame = true
		}
		m.powerX10 = clampU16(700+powerNoise, 600, 800)
		m.fanRPM = uint16(4200 + m.rng.Intn(300) - 150)
		m.tempC += (m.targetC-m.tempC)*0.02 + tempNoise
	case stateTempOvershoot:
		m.flame = true
		m.powerX10 = clampU16(400+powerNoise, 300, 500)
		m.fanRPM = 4500
		m.tempC += (m.targetC-m.tempC)*0.025 + tempNoise
	case stateFlameOutRestart:
		m.flame = false
		m.powerX10 = clampU16(300+powerNoise, 200, 400)
		m.fanRPM = uint16(2000 + m.rng.Intn(300))
		m.tempC += (m.targetC-m.tempC)*0.02 + tempNoise
	case stateCooling:
		m.flame = false
		m.powerX10 = clampU16(100+powerNoise, 50, 150)
		m.fanRPM = uint16(1500 + m.rng.Intn(200) - 100)
		m.tempC += (m.ambientC-m.tempC)*0.03 + tempNoise
	case stateError:
		m.flame = false
		m.powerX10, m.fanRPM = 0, uint16(m.rng.Intn(500))
		m.tempC += (m.ambientC - m.tempC) * 0.05
	}

	if m.tempC < m.ambientC-5 {
		m.tempC = m.ambientC - 5
	}
	if m.tempC > 120 {
		m.tempC = 120
	}

	if m.state == stateOff {
		m.voltageMV = uint16(12400 + voltageNoise)
	} else {
		sag := int(m.powerX10/10) + int(m.fanRPM/50)
		m.voltageMV = uint16(12400 - sag + voltageNoise)
	}
	if m.voltageMV < 11000 {
		m.voltageMV = 11000
	}
	if m.voltageMV > 13200 {
		m.voltageMV = 13200
	}
}

func clampU16(v float64, lo, hi int) uint16 {
	if v < float64(lo) {
		return uint16(lo)
	}
	if v > float64(hi) {
		return uint16(hi)
	}
	return uint16(v)
}
