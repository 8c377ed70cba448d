package ws

import (
	"encoding/base64"
	"io"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/app"
	"github.com/ovrsee/spyglass/internal/config"
	"github.com/ovrsee/spyglass/internal/core"
)

func init() {
	log.Logger = zerolog.New(io.Discard)
}

func newTestController() *Controller {
	cfg := &config.Config{ReadLimit: 1 << 20, PingPeriod: 54 * time.Second, SendBuffer: 8}
	dispatcher := app.NewDispatcher(app.NewRegistry(), core.NewRoomRegistry(), app.DropPolicy{})
	return NewController(dispatcher, cfg)
}

// bindConn wires a session the way HandleRelay does, minus the upgrade.
func bindConn(ctl *Controller, sid core.SessionID) *RelayConn {
	conn := NewRelayConn(nil, 8)
	viewer := ctl.Dispatcher.Sessions.GetOrCreateViewer(string(sid))
	ctl.Dispatcher.Sessions.Bind(sid, core.NewViewerSession(viewer, conn), nil)
	return conn
}

func drain(t *testing.T, c *RelayConn) map[string]any {
	t.Helper()
	select {
	case f := <-c.send:
		var out map[string]any
		if err := json.Unmarshal(f, &out); err != nil {
			t.Fatalf("bad reply frame: %v", err)
		}
		return out
	default:
		t.Fatal("no reply frame queued")
		return nil
	}
}

func TestHandleEventJoinReplies(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")

	ctl.handleEvent("A", conn, []byte(`{"type":"joinDevice","deviceId":"d1"}`))

	reply := drain(t, conn)
	if reply["type"] != "joined" || reply["deviceId"] != "d1" {
		t.Errorf("reply = %v, want joined d1", reply)
	}
	if got := ctl.Dispatcher.Rooms.MembersOf("d1"); len(got) != 1 {
		t.Errorf("MembersOf(d1) = %v, want one member", got)
	}
}

func TestHandleEventJoinWithoutDeviceRejected(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")

	ctl.handleEvent("A", conn, []byte(`{"type":"joinDevice"}`))

	reply := drain(t, conn)
	if reply["type"] != "error" {
		t.Errorf("reply = %v, want error", reply)
	}
}

func TestHandleEventCaptureRoutesToRoom(t *testing.T) {
	ctl := newTestController()
	sender := bindConn(ctl, "A")
	viewer := bindConn(ctl, "B")
	ctl.handleEvent("B", viewer, []byte(`{"type":"joinDevice","deviceId":"d1"}`))
	drain(t, viewer)

	payload := base64.StdEncoding.EncodeToString([]byte("jpegbytes"))
	raw, _ := json.Marshal(map[string]any{
		"type":     "screenCapture",
		"deviceId": "d1",
		"mime":     "image/jpeg",
		"data":     payload,
	})
	ctl.handleEvent("A", sender, raw)

	out := drain(t, viewer)
	if out["type"] != "screenCapture" || out["mime"] != "image/jpeg" {
		t.Errorf("outbound = %v, want screenCapture image/jpeg", out)
	}
	decoded, err := base64.StdEncoding.DecodeString(out["data"].(string))
	if err != nil || string(decoded) != "jpegbytes" {
		t.Errorf("data = %v, want jpegbytes", out["data"])
	}
	if len(sender.send) != 0 {
		t.Error("sender got a reply for a fire-and-forget capture")
	}
}

func TestHandleEventMalformedCaptureIsSilentDrop(t *testing.T) {
	ctl := newTestController()
	viewer := bindConn(ctl, "B")
	ctl.handleEvent("B", viewer, []byte(`{"type":"joinDevice","deviceId":"d1"}`))
	drain(t, viewer)

	sender := bindConn(ctl, "A")
	ctl.handleEvent("A", sender, []byte(`{"type":"screenCapture","deviceId":"d1","data":7}`))

	if len(viewer.send) != 0 {
		t.Error("malformed capture was delivered")
	}
	if len(sender.send) != 0 {
		t.Error("malformed capture surfaced a fault to the sender")
	}
}

func TestHandleEventLeaveReportsDevice(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")
	ctl.handleEvent("A", conn, []byte(`{"type":"joinDevice","deviceId":"d1"}`))
	drain(t, conn)

	ctl.handleEvent("A", conn, []byte(`{"type":"leaveDevice","deviceId":"d1"}`))
	reply := drain(t, conn)
	if reply["type"] != "left" || reply["deviceId"] != "d1" {
		t.Errorf("reply = %v, want left d1", reply)
	}
}

func TestHandleEventLeaveMismatchIsNotAcknowledged(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")
	ctl.handleEvent("A", conn, []byte(`{"type":"joinDevice","deviceId":"d1"}`))
	drain(t, conn)

	ctl.handleEvent("A", conn, []byte(`{"type":"leaveDevice","deviceId":"d2"}`))
	reply := drain(t, conn)
	if reply["type"] != "error" {
		t.Errorf("reply = %v, want error for mismatched leave", reply)
	}
	if got := ctl.Dispatcher.Rooms.MembersOf("d1"); len(got) != 1 {
		t.Errorf("mismatched leave changed membership: %v", got)
	}
}

func TestPingPeriodClampedWhenUnset(t *testing.T) {
	ctl := newTestController()
	ctl.Cfg.PingPeriod = 0
	if got := ctl.pingPeriod(); got != defaultPingPeriod {
		t.Errorf("pingPeriod() = %v, want %v", got, defaultPingPeriod)
	}

	ctl.Cfg.PingPeriod = 10 * time.Second
	if got := ctl.pingPeriod(); got != 10*time.Second {
		t.Errorf("pingPeriod() = %v, want configured 10s", got)
	}
}

func TestHandleEventPing(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")

	ctl.handleEvent("A", conn, []byte(`{"type":"ping"}`))
	if reply := drain(t, conn); reply["type"] != "pong" {
		t.Errorf("reply = %v, want pong", reply)
	}
}

func TestHandleEventUnknownIgnored(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")

	ctl.handleEvent("A", conn, []byte(`{"type":"selfDestruct"}`))
	if len(conn.send) != 0 {
		t.Error("unknown event produced a reply")
	}
}

func TestHandleEventBadJSONIgnored(t *testing.T) {
	ctl := newTestController()
	conn := bindConn(ctl, "A")

	ctl.handleEvent("A", conn, []byte(`{nope`))
	if len(conn.send) != 0 {
		t.Error("bad json produced a reply")
	}
}
