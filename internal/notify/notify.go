// Package notify publishes discovery events to an MQTT broker so external
// consumers (dashboards, companion apps) can react to new scans in real
// time. Publishing is best effort; the scan pipeline never blocks on it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/scanner"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// DiscoveryEvent is the payload published for each completed scan.
type DiscoveryEvent struct {
	UserID           string    `json:"user_id"`
	CommonName       string    `json:"common_name"`
	ScientificName   string    `json:"scientific_name"`
	EndangeredStatus string    `json:"endangered_status"`
	Location         string    `json:"location"`
	IsNewRecord      bool      `json:"is_new_record"`
	IsNewSpecies     bool      `json:"is_new_species"`
	PointsEarned     int       `json:"points_earned"`
	Timestamp        time.Time `json:"timestamp"`
}

// Notifier publishes discovery events over MQTT.
type Notifier struct {
	settings *conf.Settings
	client   mqtt.Client
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewNotifier creates a notifier from settings. Returns nil when MQTT is
// disabled; callers treat a nil Notifier as a no-op.
func NewNotifier(settings *conf.Settings) *Notifier {
	if settings == nil || !settings.MQTT.Enabled {
		return nil
	}
	return &Notifier{
		settings: settings,
		logger:   logging.ForService("notify"),
	}
}

// Connect establishes the broker connection.
func (n *Notifier) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(n.settings.MQTT.Broker)
	opts.SetClientID(n.settings.Main.Name)
	opts.SetUsername(n.settings.MQTT.Username)
	opts.SetPassword(n.settings.MQTT.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	n.client = mqtt.NewClient(opts)

	token := n.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.Newf("mqtt connection timeout").
			Category(errors.CategoryNetwork).
			Component("notify").
			Context("broker", n.settings.MQTT.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.Newf("mqtt connection failed: %w", err).
			Category(errors.CategoryNetwork).
			Component("notify").
			Context("broker", n.settings.MQTT.Broker).
			Build()
	}

	n.logger.Info("Connected to MQTT broker",
		"broker", n.settings.MQTT.Broker,
		"topic", n.settings.MQTT.Topic)
	return nil
}

// PublishScan publishes a discovery event for a completed scan. Failures
// are logged and swallowed.
func (n *Notifier) PublishScan(_ context.Context, result *scanner.Result) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.client == nil || !n.client.IsConnected() {
		n.logger.Debug("Not connected to MQTT broker, skipping discovery event")
		return
	}

	event := DiscoveryEvent{
		UserID:           result.UserID,
		CommonName:       result.Species.CommonName,
		ScientificName:   result.Species.ScientificName,
		EndangeredStatus: result.Species.EndangeredStatus,
		Location:         result.LocationString,
		IsNewRecord:      result.IsNewRecord,
		IsNewSpecies:     result.IsNewSpecies,
		PointsEarned:     result.Rewards.PointsEarned,
		Timestamp:        result.ScanTimestamp,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to encode discovery event", "error", err)
		return
	}

	token := n.client.Publish(n.settings.MQTT.Topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		n.logger.Warn("MQTT publish timed out", "topic", n.settings.MQTT.Topic)
		return
	}
	if err := token.Error(); err != nil {
		n.logger.Warn("MQTT publish failed",
			"topic", n.settings.MQTT.Topic,
			"error", err)
		return
	}

	n.logger.Debug("Discovery event published",
		"topic", n.settings.MQTT.Topic,
		"common_name", event.CommonName)
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
	}
}
