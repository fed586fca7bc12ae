// Package notify publishes the alert level to an MQTT broker.
package notify

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	PayloadOn  = "on"
	PayloadOff = "off"

	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
)

// ErrNotConnected is returned once per level while the broker is unreachable.
// The level is published when the connection comes back.
var ErrNotConnected = errors.New("MQTT broker not connected")

// publisher is the part of mqtt.Client the actuator uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// connChecker is implemented by mqtt.Client.
type connChecker interface {
	IsConnectionOpen() bool
}

// MQTTActuator mirrors the alert level as a retained message. Repeated levels
// are not re-sent; a new subscriber still gets the current level from the broker.
// On and Off never wait for the broker: delivery is confirmed in the background
// and a failed level is sent again on the next call or after reconnecting.
type MQTTActuator struct {
	client publisher
	topic  string

	mu      sync.Mutex
	want    string // last requested level
	sent    string // level handed to the client and not known to have failed
	dropped string // level skipped while disconnected, reported once
	failed  error  // background delivery error not yet reported
}

// Dial connects to broker (host:port or a full URL) and returns the actuator.
// An unreachable broker is not an error: the client keeps retrying.
func Dial(broker, clientID, topic string) (*MQTTActuator, mqtt.Client, error) {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	m := &MQTTActuator{topic: topic}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(mqtt.Client) { m.resend() })

	client := mqtt.NewClient(opts)
	m.client = client
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// Connect keeps retrying in the background.
		return m, client, nil
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, err)
	}
	return m, client, nil
}

func newMQTTActuator(client publisher, topic string) *MQTTActuator {
	return &MQTTActuator{client: client, topic: topic}
}

func (m *MQTTActuator) On() error {
	return m.publish(PayloadOn)
}

func (m *MQTTActuator) Off() error {
	return m.publish(PayloadOff)
}

func (m *MQTTActuator) publish(payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.want = payload
	err := m.failed
	m.failed = nil
	if m.sent == payload {
		return err
	}

	if c, ok := m.client.(connChecker); ok && !c.IsConnectionOpen() {
		if m.dropped == payload {
			return err
		}
		m.dropped = payload
		return errors.Join(err, fmt.Errorf("publish %q to %s: %w", payload, m.topic, ErrNotConnected))
	}

	m.dropped = ""
	m.sent = payload
	token := m.client.Publish(m.topic, 1, true, payload)
	go m.await(token, payload)
	return err
}

// await records a failed delivery so the level is sent again.
func (m *MQTTActuator) await(token mqtt.Token, payload string) {
	var err error
	if !token.WaitTimeout(publishTimeout) {
		err = fmt.Errorf("publish %q to %s: timed out", payload, m.topic)
	} else if token.Error() != nil {
		err = fmt.Errorf("publish %q to %s: %w", payload, m.topic, token.Error())
	}
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == payload {
		m.sent = ""
	}
	m.failed = err
}

// resend publishes the current level after the client (re)connects.
func (m *MQTTActuator) resend() {
	m.mu.Lock()
	want := m.want
	m.sent, m.dropped = "", ""
	m.mu.Unlock()

	if want != "" {
		// Failures surface on the next On or Off.
		_ = m.publish(want)
	}
}
