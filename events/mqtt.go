package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const defaultTopic = "todo"

// MQTTPublisher forwards task events to an MQTT broker.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to the broker named by rawURL, whose path is the
// topic prefix, e.g. tcp://localhost:1883/todo.
func NewMQTTPublisher(rawURL string) (*MQTTPublisher, error) {
	uri, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT_URL: %w", err)
	}
	if uri.Host == "" {
		return nil, fmt.Errorf("invalid MQTT_URL %q: missing host", rawURL)
	}

	client := mqtt.NewClient(createClientOptions("todo-api-"+uuid.NewString(), uri))
	if err := connect(client, 5*time.Second); err != nil {
		return nil, fmt.Errorf("%w: %s", err, uri.Host)
	}

	log.Infow("Connected to MQTT broker", "host", uri.Host)
	return &MQTTPublisher{client: client, topic: topicPrefix(uri)}, nil
}

// connect stops the client when the broker does not answer in time, so no
// reconnect loop outlives the failed call.
func connect(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return errors.New("timed out connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("cannot connect to MQTT broker: %w", err)
	}
	return nil
}

func createClientOptions(clientID string, uri *url.URL) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	scheme := uri.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s", scheme, uri.Host))
	if uri.User != nil {
		opts.SetUsername(uri.User.Username())
		password, _ := uri.User.Password()
		opts.SetPassword(password)
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	return opts
}

func topicPrefix(uri *url.URL) string {
	topic := strings.Trim(uri.Path, "/")
	if topic == "" {
		topic = defaultTopic
	}
	return topic
}

// Topic is where events of the given user are published.
func (p *MQTTPublisher) Topic(userID int) string {
	return fmt.Sprintf("%s/users/%d/tasks", p.topic, userID)
}

func (p *MQTTPublisher) Publish(ev TaskEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorw("error encoding task event", "error", err)
		return
	}
	topic := p.Topic(ev.Task.UserID)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Warnw("error publishing task event", "topic", topic, "error", token.Error())
		}
	}()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
	log.Info("MQTT connection closed")
}
