// MQTT telemetry sink
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttConnectTimeout = 5 * time.Second

// MQTTSink publishes metrics as JSON to <topicPrefix>/<metric>.
type MQTTSink struct {
	client      mqtt.Client
	topicPrefix string
}

type mqttRecord struct {
	Time   int64  `json:"time"`
	Fields Fields `json:"fields"`
}

// NewMQTTSink connects to the broker and returns a publishing sink.
func NewMQTTSink(broker, clientID, topicPrefix string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}
	return &MQTTSink{client: client, topicPrefix: topicPrefix}, nil
}

// Emit publishes the metric at QoS 0. Delivery is fire and forget.
func (s *MQTTSink) Emit(name string, fields Fields) error {
	payload, err := json.Marshal(mqttRecord{
		Time:   time.Now().UnixMilli(),
		Fields: fields,
	})
	if err != nil {
		return fmt.Errorf("mqtt: marshal %s: %w", name, err)
	}
	topic := s.topicPrefix + "/" + name
	token := s.client.Publish(topic, 0, false, payload)
	if token.Error() != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
