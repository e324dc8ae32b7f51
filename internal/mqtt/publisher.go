// Package mqtt publishes accepted readings to an MQTT broker using the
// rtl_433 JSON conventions, so existing home-automation pipelines that
// already ingest rtl_433 topics can consume this receiver unchanged.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rfsense/tfa433/internal/tfa"
)

// Model is the sensor model string placed in every payload.
const Model = "TFA-303215"

// Config holds broker connection settings.
type Config struct {
	Broker      string // e.g. tcp://broker.local:1883
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string // e.g. rtl_433/tfa
}

// Payload mirrors the rtl_433 JSON shape for this sensor family.
type Payload struct {
	Time         string  `json:"time"`
	Model        string  `json:"model"`
	ID           int     `json:"id"`
	Channel      int     `json:"channel"`
	BatteryOK    int     `json:"battery_ok"`
	TemperatureC float64 `json:"temperature_C"`
	Humidity     int     `json:"humidity"`
	Button       int     `json:"button"`
}

func newPayload(r tfa.Reading, at time.Time) Payload {
	battOK := 1
	if r.BatteryLow {
		battOK = 0
	}
	button := 0
	if r.Sync {
		button = 1
	}
	return Payload{
		Time:         at.UTC().Format(time.RFC3339),
		Model:        Model,
		ID:           int(r.DeviceID),
		Channel:      r.Channel,
		BatteryOK:    battOK,
		TemperatureC: r.TempC,
		Humidity:     int(r.Humidity),
		Button:       button,
	}
}

// Publisher sends readings to a broker.
type Publisher struct {
	client mqtt.Client
	prefix string
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", cfg.Broker, token.Error())
	}
	return &Publisher{client: client, prefix: cfg.TopicPrefix}, nil
}

// Publish sends one reading on <prefix>/<channel>.
func (p *Publisher) Publish(r tfa.Reading, at time.Time) error {
	body, err := json.Marshal(newPayload(r, at))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	topic := fmt.Sprintf("%s/%d", p.prefix, r.Channel)
	if token := p.client.Publish(topic, 0, false, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
