// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mqttbridge

import (
	"encoding/json"
	"fmt"
	"log"
)

// discoveryConfig mirrors the subset of a HomeAssistant MQTT
// discovery payload this bridge needs: enough for a sensor or switch
// entity to show up with the right device/unit metadata. HomeAssistant
// discovery payloads are JSON by protocol, so this does not reuse the
// CBOR encoding the receiver's state store and bench simulator do.
type discoveryConfig struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	StateTopic        string          `json:"state_topic"`
	CommandTopic      string          `json:"command_topic,omitempty"`
	UnitOfMeasurement string          `json:"unit_of_measurement,omitempty"`
	DeviceClass       string          `json:"device_class,omitempty"`
	ValueTemplate     string          `json:"value_template,omitempty"`
	AvailabilityTopic string          `json:"availability_topic"`
	Device            discoveryDevice `json:"device"`
}

type discoveryDevice struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Manufacturer string  `json:"manufacturer"`
}

func (b *Bridge) device() discoveryDevice {
	return discoveryDevice{
		Identifiers: []string{b.prefix},
		Name:        "Webasto Parking Heater",
		Model:       "WLR LoRa Bridge",
		Manufacturer: "Thermoquad",
	}
}

// PublishDiscovery announces the heater's state sensors to
// HomeAssistant's MQTT discovery.
func (b *Bridge) PublishDiscovery() {
	sensors := []discoveryConfig{
		{
			Name: "Heater State", UniqueID: b.prefix + "_state",
			StateTopic: b.prefix + "/state", AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
		{
			Name: "Heater Temperature", UniqueID: b.prefix + "_temperature",
			StateTopic: b.prefix + "/temperature", UnitOfMeasurement: "°C",
			DeviceClass: "temperature", AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
		{
			Name: "Heater Battery Voltage", UniqueID: b.prefix + "_voltage",
			StateTopic: b.prefix + "/voltage", UnitOfMeasurement: "mV",
			DeviceClass: "voltage", AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
		{
			Name: "Heater Power Draw", UniqueID: b.prefix + "_power",
			StateTopic: b.prefix + "/power", UnitOfMeasurement: "W",
			DeviceClass: "power", AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
	}

	for _, s := range sensors {
		b.publishDiscoveryConfig("sensor", s.UniqueID, s)
	}
}

// PublishDiagnosticDiscovery announces the LoRa/W-BUS diagnostic
// sensors separately, matching the original firmware's split between
// publishDiscovery and publishDiagnosticDiscovery.
func (b *Bridge) PublishDiagnosticDiscovery() {
	sensors := []discoveryConfig{
		{
			Name: "Heater LoRa RSSI", UniqueID: b.prefix + "_rssi",
			StateTopic: b.prefix + "/diagnostic/rssi", UnitOfMeasurement: "dBm",
			DeviceClass: "signal_strength", AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
		{
			Name: "Heater LoRa SNR", UniqueID: b.prefix + "_snr",
			StateTopic: b.prefix + "/diagnostic/snr", UnitOfMeasurement: "dB",
			AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
		{
			Name: "Heater W-BUS Healthy", UniqueID: b.prefix + "_wbus_healthy",
			StateTopic: b.prefix + "/diagnostic/wbus_healthy",
			AvailabilityTopic: b.prefix + "/availability",
			Device: b.device(),
		},
	}

	for _, s := range sensors {
		b.publishDiscoveryConfig("binary_sensor", s.UniqueID, s)
	}
}

func (b *Bridge) publishDiscoveryConfig(component, objectID string, cfg discoveryConfig) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("mqttbridge: marshal discovery config for %s: %v", objectID, err)
		return
	}
	topic := fmt.Sprintf("homeassistant/%s/%s/config", component, objectID)
	token := b.client.Publish(topic, 0, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("mqttbridge: publish discovery for %s: %v", objectID, err)
	}
}
