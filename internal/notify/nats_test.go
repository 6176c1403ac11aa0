package notify

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startNats(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoSigs: true,
		NoLog:  true,
	})
	require.NoError(t, err)

	ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server not ready for connections")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func TestNewNatsSink_RequiresURL(t *testing.T) {
	_, err := NewNatsSink(NatsConfig{})
	assert.Error(t, err)
}

func TestNatsSink_Send(t *testing.T) {
	ns := startNats(t)

	sub, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("valheim.events", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	s, err := NewNatsSink(NatsConfig{URL: ns.ClientURL(), Subject: "valheim.events"})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), "first"))
	require.NoError(t, s.Send(context.Background(), "second"))

	var ids []string
	for _, want := range []string{"first", "second"} {
		select {
		case m := <-msgs:
			assert.Equal(t, want, string(m.Data))
			id := m.Header.Get(nats.MsgIdHdr)
			assert.NotEmpty(t, id)
			ids = append(ids, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	assert.NotEqual(t, ids[0], ids[1])
}

func TestNatsSink_DefaultSubject(t *testing.T) {
	ns := startNats(t)

	s, err := NewNatsSink(NatsConfig{URL: ns.ClientURL()})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DefaultNatsSubject, s.subject)
}
