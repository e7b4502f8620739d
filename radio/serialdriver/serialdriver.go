// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package serialdriver implements radio.Link against an AT-command
// LoRa module (the RYLR896 family) over a UART, following the same
// command/response channel pattern used for the Helios serial link
// elsewhere in this codebase, with AT+SEND/+RCV framing instead of
// byte-stuffed binary framing.
package serialdriver

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/webasto-remote/wlr/radio"
)

const (
	defaultBaud    = 115200
	commandTimeout = 10 * time.Second
	rxQueueDepth   = 16
)

// Driver drives an RYLR896-class module in AT-command mode. Payloads
// are passed through hex encoding on the wire since AT+SEND/+RCV are
// line-oriented text commands and the packets this carries are
// ciphertext, not printable text.
type Driver struct {
	port    serial.Port
	address uint16

	mu      sync.Mutex
	cmdResp chan string
	cmdErr  chan error

	rx     chan radio.Frame
	errs   chan error
	closed chan struct{}
}

// Open opens the serial port, configures the module's own address,
// and starts the background reader goroutine.
func Open(portName string, address uint16) (*Driver, error) {
	mode := &serial.Mode{
		BaudRate: defaultBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("serialdriver: open %s: %w", portName, err)
	}

	d := &Driver{
		port:    port,
		address: address,
		cmdResp: make(chan string, 1),
		cmdErr:  make(chan error, 1),
		rx:      make(chan radio.Frame, rxQueueDepth),
		errs:    make(chan error, rxQueueDepth),
		closed:  make(chan struct{}),
	}

	go d.readLoop()

	if err := d.sendCommand(fmt.Sprintf("AT+ADDRESS=%d", address)); err != nil {
		d.port.Close()
		return nil, fmt.Errorf("serialdriver: set address: %w", err)
	}

	return d, nil
}

func (d *Driver) readLoop() {
	reader := bufio.NewReader(d.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			select {
			case d.errs <- err:
			default:
			}
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		d.classify(line)
	}
}

func (d *Driver) classify(line string) {
	if payload, ok := strings.CutPrefix(line, "+RCV="); ok {
		if frame, ok := parseReceived(payload); ok {
			select {
			case d.rx <- frame:
			default:
				// drop oldest to make room rather than block the reader
				select {
				case <-d.rx:
				default:
				}
				d.rx <- frame
			}
		}
		return
	}

	// command responses: "+OK", "+ERR=<n>", or bare data for query commands
	select {
	case d.cmdResp <- line:
	default:
	}
}

// parseReceived decodes "+RCV=<addr>,<len>,<hexdata>,<rssi>,<snr>".
func parseReceived(payload string) (radio.Frame, bool) {
	fields := strings.Split(payload, ",")
	if len(fields) < 5 {
		return radio.Frame{}, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return radio.Frame{}, false
	}
	data, err := hex.DecodeString(fields[2])
	if err != nil {
		return radio.Frame{}, false
	}
	rssi, err := strconv.Atoi(fields[3])
	if err != nil {
		return radio.Frame{}, false
	}
	snr, err := strconv.Atoi(fields[4])
	if err != nil {
		return radio.Frame{}, false
	}
	return radio.Frame{Data: data, RSSIDbm: int8(rssi), SNRDb: int8(snr)}, true
}

func (d *Driver) sendCommand(cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.port.Write([]byte(cmd + "\r\n")); err != nil {
		return err
	}
	select {
	case resp := <-d.cmdResp:
		if strings.HasPrefix(resp, "+ERR=") {
			return fmt.Errorf("serialdriver: module error %s", resp)
		}
		return nil
	case err := <-d.cmdErr:
		return err
	case <-time.After(commandTimeout):
		return fmt.Errorf("serialdriver: command %q timed out", cmd)
	}
}

// Send transmits a frame as a broadcast (address 0) AT+SEND command,
// hex-encoding the ciphertext payload.
func (d *Driver) Send(frame []byte) error {
	cmd := fmt.Sprintf("AT+SEND=0,%d,%s", len(frame), hex.EncodeToString(frame))
	return d.sendCommand(cmd)
}

func (d *Driver) Receive(timeout time.Duration) (radio.Frame, error) {
	select {
	case frame := <-d.rx:
		return frame, nil
	case <-time.After(timeout):
		return radio.Frame{}, radio.ErrTimeout
	case <-d.closed:
		return radio.Frame{}, fmt.Errorf("serialdriver: closed")
	}
}

func (d *Driver) TryReceive() (radio.Frame, error) {
	select {
	case frame := <-d.rx:
		return frame, nil
	default:
		return radio.Frame{}, radio.ErrTimeout
	}
}

// Sleep puts the module into its lowest power mode (MODE=1 on the
// RYLR896). Idle restores normal TX/RX mode.
func (d *Driver) Sleep() error { return d.sendCommand("AT+MODE=1") }
func (d *Driver) Idle() error  { return d.sendCommand("AT+MODE=0") }

func (d *Driver) Close() error {
	close(d.closed)
	return d.port.Close()
}
