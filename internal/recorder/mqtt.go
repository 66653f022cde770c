package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/formsense/internal/monitoring"
)

// DefaultMQTTTopic is the topic prefix for rep events.
const DefaultMQTTTopic = "formsense/reps"

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// mqttPublisher is the part of mqtt.Client the recorder needs.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTRecorder publishes each event as JSON to <topic>/<exercise>.
type MQTTRecorder struct {
	client  mqttPublisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTRecorder publishes through client under topic with QoS 1.
func NewMQTTRecorder(client mqttPublisher, topic string) *MQTTRecorder {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTTRecorder{client: client, topic: strings.TrimSuffix(topic, "/"), qos: 1, timeout: 2 * time.Second}
}

// Topic returns the topic an event is published to.
func (r *MQTTRecorder) Topic(e RepEvent) string {
	return r.topic + "/" + strings.ReplaceAll(e.Exercise, " ", "-")
}

// Record implements Recorder.
func (r *MQTTRecorder) Record(ctx context.Context, e RepEvent) error {
	payload, err := e.Payload()
	if err != nil {
		return fmt.Errorf("encode rep event: %w", err)
	}
	token := r.client.Publish(r.Topic(e), r.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.timeout):
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// DialMQTT connects to broker (host:port or a full URL) with automatic
// reconnection.
func DialMQTT(ctx context.Context, broker, clientID string) (mqtt.Client, error) {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	logf := monitoring.Component("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) { logf("connected to %s", broker) }
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logf("connection to %s lost, reconnecting: %v", broker, err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}
