package events

import (
	"errors"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// pendingToken never completes unless err is set.
type pendingToken struct {
	mqtt.Token
	err error
}

func (t pendingToken) WaitTimeout(time.Duration) bool { return t.err != nil }

func (t pendingToken) Error() error { return t.err }

type fakeClient struct {
	mqtt.Client
	token        pendingToken
	disconnected bool
}

func (c *fakeClient) Connect() mqtt.Token { return c.token }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestConnect_TimeoutStopsClient(t *testing.T) {
	c := &fakeClient{}
	err := connect(c, time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !c.disconnected {
		t.Fatalf("client still running after timeout")
	}
}

func TestConnect_Refused(t *testing.T) {
	refused := errors.New("not authorized")
	c := &fakeClient{token: pendingToken{err: refused}}
	if err := connect(c, time.Millisecond); !errors.Is(err, refused) {
		t.Fatalf("expected %v, got %v", refused, err)
	}
	if c.disconnected {
		t.Fatalf("refused client should not need a disconnect")
	}
}

func TestNewMQTTPublisher_InvalidURL(t *testing.T) {
	for _, raw := range []string{"://nope", "todo"} {
		if _, err := NewMQTTPublisher(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
