package source

import (
	"crypto/tls"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTT receives frames as raw binary payloads published on a broker topic.
type MQTT struct {
	client mqtt.Client
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewMQTT connects to the broker and subscribes to topic. Each message
// payload is treated as one frame.
func NewMQTT(brokerURL, topic, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	url := strings.TrimSpace(brokerURL)
	if strings.HasPrefix(url, "mqtt://") {
		url = "tcp://" + strings.TrimPrefix(url, "mqtt://")
	}
	opts.AddBroker(url)
	if strings.TrimSpace(clientID) == "" {
		clientID = "telemetryd-" + uuid.NewString()[:8]
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	// If a TLS broker is used in the future, tighten this.
	opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	}
	opts.OnConnect = func(_ mqtt.Client) {
		slog.Info("mqtt connected")
	}

	s := &MQTT{
		frames: make(chan []byte, 64),
		closed: make(chan struct{}),
	}

	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if ok := tok.WaitTimeout(15 * time.Second); !ok {
		return nil, tok.Error()
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	s.client = c

	sub := c.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		s.enqueue(append([]byte(nil), msg.Payload()...))
	})
	sub.Wait()
	if err := sub.Error(); err != nil {
		c.Disconnect(1000)
		return nil, err
	}
	return s, nil
}

func (s *MQTT) enqueue(payload []byte) {
	select {
	case s.frames <- payload:
	case <-s.closed:
	default:
		slog.Warn("frame buffer full, dropping frame", "size", len(payload))
	}
}

func (s *MQTT) Next() ([]byte, error) {
	select {
	case b := <-s.frames:
		return b, nil
	case <-s.closed:
		return nil, ErrClosed
	}
}

func (s *MQTT) Close() error {
	s.once.Do(func() {
		close(s.closed)
		if s.client != nil {
			s.client.Disconnect(1000)
		}
	})
	return nil
}
