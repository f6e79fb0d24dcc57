package mqtt_test

import (
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is an already completed token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// fakeMessage carries a published payload back to subscribers.
type fakeMessage struct {
	MQTT.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakeClient loops publishes back to its own subscriptions, like a broker
// with a single connected client. Methods the bus does not call are left to
// the embedded nil interface.
type fakeClient struct {
	MQTT.Client

	mu           sync.Mutex
	connected    bool
	routes       map[string]MQTT.MessageHandler
	subscribes   int
	unsubscribes []string
	publishErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connected: true,
		routes:    make(map[string]MQTT.MessageHandler),
	}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	c.mu.Lock()
	if c.publishErr != nil {
		err := c.publishErr
		c.mu.Unlock()
		return &fakeToken{err: err}
	}
	handler := c.routes[topic]
	c.mu.Unlock()

	if handler != nil {
		data, _ := payload.([]byte)
		handler(c, &fakeMessage{topic: topic, payload: data})
	}
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[topic] = callback
	c.subscribes++
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) MQTT.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.routes, topic)
		c.unsubscribes = append(c.unsubscribes, topic)
	}
	return &fakeToken{}
}
