package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/admin"
	"github.com/cmdrelay/cmdrelay/internal/config"
	"github.com/cmdrelay/cmdrelay/internal/types"
)

func newTestServer(t *testing.T) (*Server, net.Conn, context.CancelFunc) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o600))
	store, err := config.NewStore(path)
	require.NoError(t, err)

	srv := NewServer("127.0.0.1:0", NewRoster(), admin.NewCommand(store, zap.NewNop()), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := srv.Start(ctx); err != nil {
			t.Errorf("server start: %v", err)
		}
	}()

	require.Eventually(t, func() bool { return srv.Addr() != nil },
		2*time.Second, 5*time.Millisecond)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
	})
	return srv, conn, cancel
}

func sendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	_, err := fmt.Fprintln(conn, line)
	require.NoError(t, err)
}

func TestBridgeTriggerFlow(t *testing.T) {
	srv, conn, _ := newTestServer(t)

	sendLine(t, conn, `{"type":"hello","commands":{"fly":"essentials.fly"}}`)
	sendLine(t, conn, `{"type":"join","actor":{"id":"u1","name":"Ghast","group":"admin","mention":"<@9>","world":"world","x":1,"y":64,"z":2},"permissions":["essentials.fly"]}`)
	sendLine(t, conn, `{"type":"trigger","actorId":"u1","command":"/fly"}`)

	select {
	case ev := <-srv.Triggers():
		assert.Equal(t, types.ActorID("u1"), ev.Actor.ID)
		assert.Equal(t, "Ghast", ev.Actor.Name)
		assert.Equal(t, "world", ev.Actor.Location.World)
		assert.Equal(t, "/fly", ev.Command)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger event not delivered")
	}

	// Roster state is queryable through the capability interfaces.
	require.Eventually(t, func() bool { return srv.roster.CommandCount() == 1 },
		time.Second, 5*time.Millisecond)
	check, known := srv.roster.Lookup("fly")
	require.True(t, known)
	assert.True(t, check("u1"))
}

func TestBridgeTriggerBeforeJoin(t *testing.T) {
	srv, conn, _ := newTestServer(t)

	sendLine(t, conn, `{"type":"trigger","actorId":"u1","command":"/fly"}`)

	select {
	case ev := <-srv.Triggers():
		assert.Equal(t, types.ActorID("u1"), ev.Actor.ID)
		assert.Equal(t, "u1", ev.Actor.Name, "unannounced actor gets a minimal identity")
	case <-time.After(2 * time.Second):
		t.Fatal("trigger event not delivered")
	}
}

func TestBridgeFeedbackAndQuit(t *testing.T) {
	srv, conn, _ := newTestServer(t)

	sendLine(t, conn, `{"type":"join","actor":{"id":"u1","name":"Ghast"}}`)
	sendLine(t, conn, `{"type":"feedback","actorId":"u1","component":"{\"text\":\"Unknown command\"}","plain":"Unknown command"}`)
	sendLine(t, conn, `{"type":"quit","actorId":"u1"}`)

	select {
	case sig := <-srv.Feedback():
		assert.Equal(t, types.ActorID("u1"), sig.Actor)
		assert.Equal(t, `{"text":"Unknown command"}`, sig.Component)
		assert.Equal(t, "Unknown command", sig.Plain)
	case <-time.After(2 * time.Second):
		t.Fatal("feedback signal not delivered")
	}

	select {
	case ev := <-srv.Disconnects():
		assert.Equal(t, types.ActorID("u1"), ev.Actor)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect event not delivered")
	}

	require.Eventually(t, func() bool {
		_, ok := srv.roster.Actor("u1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestBridgeMalformedLineSkipped(t *testing.T) {
	srv, conn, _ := newTestServer(t)

	sendLine(t, conn, `{not json`)
	sendLine(t, conn, `{"type":"trigger","actorId":"u1","command":"/fly"}`)

	select {
	case ev := <-srv.Triggers():
		assert.Equal(t, "/fly", ev.Command)
	case <-time.After(2 * time.Second):
		t.Fatal("valid line after malformed line was not processed")
	}
}

func TestBridgeAdminReload(t *testing.T) {
	srv, conn, _ := newTestServer(t)

	sendLine(t, conn, fmt.Sprintf(
		`{"type":"join","actor":{"id":"u1","name":"Ghast"},"permissions":[%q]}`,
		admin.ReloadPermission))
	require.Eventually(t, func() bool {
		_, ok := srv.roster.Actor("u1")
		return ok
	}, time.Second, 5*time.Millisecond)

	sendLine(t, conn, `{"type":"admin","actorId":"u1","args":["reload"]}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan(), "expected a reply line")

	var reply message
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &reply))
	assert.Equal(t, "message", reply.Type)
	assert.Equal(t, "u1", reply.ActorID)
	assert.Contains(t, reply.Text, "reloaded successfully")
}

func TestBridgeAdminWithoutPermission(t *testing.T) {
	_, conn, _ := newTestServer(t)

	sendLine(t, conn, `{"type":"join","actor":{"id":"u1","name":"Ghast"}}`)
	sendLine(t, conn, `{"type":"admin","actorId":"u1","args":["reload"]}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan(), "expected a reply line")

	var reply message
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &reply))
	assert.Contains(t, reply.Text, "do not have permission")
}
