package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jonwraymond/modeflow/observe"
)

// DefaultSubjectPrefix is prepended to every event name.
const DefaultSubjectPrefix = "modeflow.telemetry"

// Publisher is the subset of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig configures DialNATS.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Message is the JSON body published for each event.
type Message struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload,omitempty"`
}

// NATSSink publishes each event to <prefix>.<event>.
type NATSSink struct {
	pub    Publisher
	prefix string
	logger observe.Logger
	conn   *nats.Conn // set when the sink owns the connection
}

// NewNATSSink creates a sink publishing through pub.
func NewNATSSink(pub Publisher, prefix string, logger observe.Logger) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &NATSSink{pub: pub, prefix: prefix, logger: logger}
}

// DialNATS connects to cfg.URL and returns a sink that owns the connection.
// The client keeps reconnecting in the background, so a server that is down
// at start only delays delivery.
func DialNATS(cfg NATSConfig, logger observe.Logger) (*NATSSink, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("modeflow"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect to NATS: %w", err)
	}

	s := NewNATSSink(conn, cfg.SubjectPrefix, logger)
	s.conn = conn
	return s, nil
}

// Subject returns the subject event is published on.
func (s *NATSSink) Subject(event string) string {
	return s.prefix + "." + event
}

// Record publishes event. Failures are logged at debug level and dropped.
func (s *NATSSink) Record(ctx context.Context, event string, payload Payload) {
	data, err := json.Marshal(Message{Event: event, Timestamp: time.Now().UTC(), Payload: payload})
	if err != nil {
		s.logger.Debug(ctx, "telemetry event not encodable", observe.F("event", event), observe.F("error", err))
		return
	}
	if err := s.pub.Publish(s.Subject(event), data); err != nil {
		s.logger.Debug(ctx, "telemetry publish failed", observe.F("event", event), observe.F("error", err))
	}
}

// Close flushes and closes the connection when the sink owns one.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Drain()
	if err != nil {
		s.conn.Close()
	}
	return err
}
