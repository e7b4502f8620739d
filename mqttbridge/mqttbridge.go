// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mqttbridge republishes receiver status over MQTT and turns
// incoming MQTT commands into CommandHandler calls, with a
// HomeAssistant discovery payload and a freshness window on incoming
// commands so a stale retained message can't fire a heater cycle
// hours after it was published.
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/webasto-remote/wlr/internal/config"
	"github.com/webasto-remote/wlr/protocol/codec"
)

// CommandHandler is called for each fresh, well-formed command
// received over MQTT. cmd/receiver wires it to the same command
// dispatch function its local panel uses, which drives the W-BUS
// controller directly.
type CommandHandler func(kind codec.CommandKind, minutes uint8) error

// Command is the JSON payload this bridge expects on its command
// topic: {"type":"start","minutes":30,"ts":1700000000}. ts is Unix
// seconds and is what CommandFreshnessWindow is checked against.
type Command struct {
	Type    string `json:"type"`
	Minutes uint8  `json:"minutes"`
	TS      int64  `json:"ts"`
}

// Bridge owns one MQTT client and the topic prefix it publishes under
// (e.g. "wlr/heater1").
type Bridge struct {
	client mqtt.Client
	prefix string
	handle CommandHandler

	discoveryPublished bool
}

// Options configures New.
type Options struct {
	Broker       string // e.g. "tcp://localhost:1883"
	ClientID     string
	Username     string
	Password     string
	TopicPrefix  string
	OnConnectLost func(error)
}

// New connects to broker and subscribes to the command topic,
// invoking handle for each fresh command it accepts. The connection
// is established synchronously; callers that need the non-blocking
// reconnect behavior of the rest of this bridge should still call New
// once at startup, since paho reconnects automatically after that.
func New(opts Options, handle CommandHandler) (*Bridge, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetWill(opts.TopicPrefix+"/availability", "offline", 0, true)
	if opts.OnConnectLost != nil {
		clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { opts.OnConnectLost(err) })
	}

	b := &Bridge{prefix: opts.TopicPrefix, handle: handle}
	clientOpts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Printf("mqttbridge: connected to %s", opts.Broker)
		token := c.Subscribe(b.commandTopic(), 0, b.onCommand)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqttbridge: subscribe failed: %v", err)
		}
		c.Publish(opts.TopicPrefix+"/availability", 0, true, "online")
	})

	b.client = mqtt.NewClient(clientOpts)
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttbridge: connect: %w", err)
	}
	return b, nil
}

func (b *Bridge) commandTopic() string { return b.prefix + "/command/set" }

func (b *Bridge) onCommand(_ mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("mqttbridge: malformed command payload: %v", err)
		return
	}

	if !isFresh(cmd.TS) {
		log.Printf("mqttbridge: dropping stale command (ts=%d)", cmd.TS)
		return
	}

	kind, err := parseKind(cmd.Type)
	if err != nil {
		log.Printf("mqttbridge: %v", err)
		return
	}

	if err := b.handle(kind, cmd.Minutes); err != nil {
		log.Printf("mqttbridge: command handler error: %v", err)
	}
}

func isFresh(tsSec int64) bool {
	if tsSec == 0 {
		return false
	}
	age := time.Since(time.Unix(tsSec, 0))
	return age >= 0 && age <= config.CommandFreshnessWindow
}

func parseKind(t string) (codec.CommandKind, error) {
	switch t {
	case "start":
		return codec.CmdStart, nil
	case "stop":
		return codec.CmdStop, nil
	case "run_minutes":
		return codec.CmdRunMinutes, nil
	default:
		return 0, fmt.Errorf("unknown command type %q", t)
	}
}

// PublishStatus republishes a decoded Status packet as individual
// state topics, the same granularity the original firmware's
// MQTTClient exposed (mode, temperature, voltage, power) plus minutes
// remaining. The diagnostic fields go out through PublishDiagnostics.
func (b *Bridge) PublishStatus(status codec.StatusPayload) {
	b.publish("state", stateString(status.State))
	b.publish("temperature", strconv.Itoa(int(status.TemperatureC)))
	b.publish("voltage", strconv.Itoa(int(status.VoltageMV)))
	b.publish("power", strconv.Itoa(int(status.PowerW)))
	b.publish("minutes_remaining", strconv.Itoa(int(status.MinutesRemaining)))
}

// PublishDiagnostics republishes the LoRa link quality and last
// command source, mirroring publishDiagnostics in the original
// firmware's MQTTClient.
func (b *Bridge) PublishDiagnostics(rssiDbm, snrDb int8, cmdSource string, wbusHealthy bool) {
	b.publish("diagnostic/rssi", strconv.Itoa(int(rssiDbm)))
	b.publish("diagnostic/snr", strconv.Itoa(int(snrDb)))
	b.publish("diagnostic/last_command_source", cmdSource)
	b.publish("diagnostic/wbus_healthy", strconv.FormatBool(wbusHealthy))
}

func (b *Bridge) publish(topic, value string) {
	token := b.client.Publish(b.prefix+"/"+topic, 0, true, value)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("mqttbridge: publish %s: %v", topic, err)
	}
}

func stateString(s codec.HeaterState) string {
	switch s {
	case codec.HeaterOff:
		return "off"
	case codec.HeaterRunning:
		return "heat"
	case codec.HeaterError:
		return "error"
	default:
		return "unknown"
	}
}

// Close disconnects cleanly, publishing an offline availability
// message first.
func (b *Bridge) Close() {
	b.client.Publish(b.prefix+"/availability", 0, true, "offline")
	b.client.Disconnect(250)
}
