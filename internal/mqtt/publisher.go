package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"saj-gateway/internal/config"
	"saj-gateway/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher fans gateway events out to the broker.
type Publisher interface {
	PublishRealtime(deviceSn string, payload json.RawMessage) error
	PublishSyncResult(result *models.SyncResult) error
	Close()
}

// NewPublisher connects to the configured broker. Without a broker it
// returns a publisher that drops every event.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (Publisher, error) {
	logger = logger.With(zap.String("component", "mqtt_publisher"))
	if cfg.MQTTBroker == "" {
		logger.Info("MQTT broker not configured, events disabled")
		return NopPublisher{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("MQTT client connected", zap.String("broker", cfg.MQTTBroker))
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		logger.Error("MQTT connection lost, reconnecting", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return NewClientPublisher(client, cfg.MQTTTopicPrefix, logger), nil
}

// ClientPublisher publishes through a paho client.
type ClientPublisher struct {
	client mqtt.Client
	prefix string
	logger *zap.Logger
}

func NewClientPublisher(client mqtt.Client, prefix string, logger *zap.Logger) *ClientPublisher {
	return &ClientPublisher{client: client, prefix: prefix, logger: logger}
}

// PublishRealtime publishes the latest realtime payload of a device as a
// retained message, so late subscribers get the current snapshot.
func (p *ClientPublisher) PublishRealtime(deviceSn string, payload json.RawMessage) error {
	return p.publish(RealtimeTopic(p.prefix, deviceSn), true, payload)
}

func (p *ClientPublisher) PublishSyncResult(result *models.SyncResult) error {
	msg, err := json.Marshal(syncEvent{SyncResult: result, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal sync result: %w", err)
	}
	return p.publish(SyncTopic(p.prefix, result.Kind), false, msg)
}

func (p *ClientPublisher) publish(topic string, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish to %s failed: %w", topic, err)
	}
	p.logger.Debug("Event published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}

func (p *ClientPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.logger.Info("MQTT client disconnected")
	}
}

type syncEvent struct {
	*models.SyncResult
	Timestamp time.Time `json:"timestamp"`
}

func RealtimeTopic(prefix, deviceSn string) string {
	return fmt.Sprintf("%s/devices/%s/realtime", prefix, deviceSn)
}

func SyncTopic(prefix string, kind models.SyncKind) string {
	return fmt.Sprintf("%s/sync/%s", prefix, kind)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishRealtime(string, json.RawMessage) error { return nil }
func (NopPublisher) PublishSyncResult(*models.SyncResult) error { return nil }
func (NopPublisher) Close() {}
