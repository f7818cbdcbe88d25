package network

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/state"
)

// TestMessageFraming verifies header fields and payload survive the wire
func TestMessageFraming(t *testing.T) {
	var buf bytes.Buffer
	in := &Message{Type: MsgVisual, Flags: 3, Seq: 77, Payload: []byte{1, 2, 3}}
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() != HeaderSize+3 {
		t.Errorf("Expected %d bytes, got %d", HeaderSize+3, buf.Len())
	}
	if err := NewMessage(MsgHeartbeat, nil).Encode(&buf); err != nil {
		t.Fatalf("Encode heartbeat: %v", err)
	}

	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Type != in.Type || out.Flags != in.Flags || out.Seq != in.Seq || !bytes.Equal(out.Payload, in.Payload) {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
	hb, err := Decode(&buf)
	if err != nil || hb.Type != MsgHeartbeat || hb.Payload != nil {
		t.Errorf("Expected empty heartbeat, got %+v %v", hb, err)
	}
	if _, err := Decode(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF, got %v", err)
	}

	big := NewMessage(MsgVisual, make([]byte, MaxPayload+1))
	if err := big.Encode(io.Discard); !errors.Is(err, ErrPayloadSize) {
		t.Errorf("Expected ErrPayloadSize, got %v", err)
	}
}

// TestPayloadErrors verifies each decoder rejects the wrong length
func TestPayloadErrors(t *testing.T) {
	if _, err := DecodeVisual(make([]byte, 8)); !errors.Is(err, ErrPayload) {
		t.Errorf("visual: expected ErrPayload, got %v", err)
	}
	if _, err := DecodeTap(nil); !errors.Is(err, ErrPayload) {
		t.Errorf("tap: expected ErrPayload, got %v", err)
	}
	if _, err := DecodeTap(EncodeTap(math.NaN())); !errors.Is(err, ErrPayload) {
		t.Errorf("tap NaN: expected ErrPayload, got %v", err)
	}
	if _, _, err := DecodeMacroPad(make([]byte, 12)); !errors.Is(err, ErrPayload) {
		t.Errorf("macro pad: expected ErrPayload, got %v", err)
	}
	if _, err := DecodeStatus(make([]byte, 16)); !errors.Is(err, ErrPayload) {
		t.Errorf("status: expected ErrPayload, got %v", err)
	}

	s, err := DecodeStatus(EncodeStatus(Status{Tempo: 96, Chaos: true, Impacts: 1 << 40}))
	if err != nil || s.Tempo != 96 || s.Playing || !s.Chaos || s.Impacts != 1<<40 {
		t.Errorf("Unexpected status %+v %v", s, err)
	}
}

type testSurface struct {
	svc    *Service
	global *state.Store
	visual *state.VisualStore
}

func startTestService(t *testing.T, cfg *Config) *testSurface {
	t.Helper()
	ts := &testSurface{
		global: state.NewStore(state.DefaultGlobal()),
		visual: state.NewVisualStore(0),
	}
	sink := &ControlSink{
		Global:  ts.global,
		Visual:  ts.visual,
		Tempo:   music.NewTapTempo(parameter.DefaultBPM),
		Impacts: func() uint64 { return 42 },
	}
	ts.svc = NewService(sink)
	if err := ts.svc.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ts.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { ts.svc.Stop() })
	return ts
}

func dialTest(t *testing.T, s *Service) *Client {
	t.Helper()
	c, err := Dial(s.Addr().String(), time.Second, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// TestServiceAppliesMessages verifies remote input reaches the stores in order
func TestServiceAppliesMessages(t *testing.T) {
	ts := startTestService(t, DefaultConfig("127.0.0.1:0"))
	c := dialTest(t, ts.svc)

	if err := c.SendVisual(state.Visual{Motion: 1, Brightness: 1, Hue: 90}); err != nil {
		t.Fatalf("SendVisual: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := c.SendTap(float64(1000 + 500*i)); err != nil {
			t.Fatalf("SendTap: %v", err)
		}
	}
	if err := c.SendMacroPad(0.5, 0.25); err != nil {
		t.Fatalf("SendMacroPad: %v", err)
	}

	// Messages from one connection are applied in order, so the reply follows them
	st, err := c.Ping(2 * time.Second)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}

	v, live := ts.visual.Lookup()
	if !live || v.Hue != 90 || v.Motion != 1 {
		t.Errorf("Expected live visual with hue 90, got %+v live=%v", v, live)
	}
	g := ts.global.Load()
	if math.Abs(g.Tempo-120) > 1e-9 {
		t.Errorf("Expected 120 bpm from taps, got %v", g.Tempo)
	}
	if math.Abs(g.TimeScale-0.5*parameter.MaxTimeScale) > 1e-6 || math.Abs(g.GlobalFilter-0.25) > 1e-6 {
		t.Errorf("Expected pad time %v filter 0.25, got %v %v", 0.5*parameter.MaxTimeScale, g.TimeScale, g.GlobalFilter)
	}

	if st.Tempo != 120 || !st.Playing || st.Impacts != 42 || math.Abs(st.Energy-1) > 1e-6 {
		t.Errorf("Unexpected status %+v", st)
	}
	if n := ts.svc.Received(); n != 6 {
		t.Errorf("Expected 6 applied messages, got %d", n)
	}
}

// TestServiceRejectsMalformed verifies bad payloads are dropped without closing the peer
func TestServiceRejectsMalformed(t *testing.T) {
	ts := startTestService(t, DefaultConfig("127.0.0.1:0"))
	c := dialTest(t, ts.svc)

	if err := c.Send(MsgVisual, []byte{1, 2}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := c.Send(MessageType(0x7f), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := c.Ping(2 * time.Second); err != nil {
		t.Fatalf("Expected the peer to stay connected: %v", err)
	}
	if n := ts.svc.Rejected(); n != 2 {
		t.Errorf("Expected 2 rejected messages, got %d", n)
	}
	if _, live := ts.visual.Lookup(); live {
		t.Error("Expected no visual reading from a malformed payload")
	}
}

// TestServiceMaxPeers verifies connections past the limit are closed
func TestServiceMaxPeers(t *testing.T) {
	cfg := DefaultConfig("127.0.0.1:0")
	cfg.MaxPeers = 1
	ts := startTestService(t, cfg)

	first := dialTest(t, ts.svc)
	if _, err := first.Ping(2 * time.Second); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	second := dialTest(t, ts.svc)
	if _, err := second.Ping(2 * time.Second); err == nil {
		t.Error("Expected the second peer to be refused")
	}
	if n := ts.svc.PeerCount(); n != 1 {
		t.Errorf("Expected 1 peer, got %d", n)
	}
}

// TestServiceDisabled verifies an empty address makes the service inert
func TestServiceDisabled(t *testing.T) {
	s := NewService(nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.IsRunning() || s.Addr() != nil {
		t.Error("Expected disabled service not to listen")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}

	if err := s.Init(DefaultConfig("127.0.0.1:0")); !errors.Is(err, ErrNoSink) {
		t.Errorf("Expected ErrNoSink, got %v", err)
	}
}

// TestServiceRestart verifies Stop is idempotent and the service can listen again
func TestServiceRestart(t *testing.T) {
	ts := startTestService(t, DefaultConfig("127.0.0.1:0"))
	c := dialTest(t, ts.svc)
	if _, err := c.Ping(2 * time.Second); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if err := ts.svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := ts.svc.Stop(); err != nil {
		t.Errorf("Second Stop: %v", err)
	}
	if ts.svc.PeerCount() != 0 {
		t.Errorf("Expected peers dropped on stop, got %d", ts.svc.PeerCount())
	}
	if _, err := c.Ping(time.Second); err == nil {
		t.Error("Expected the old connection to be closed")
	}

	if err := ts.svc.Start(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	c2 := dialTest(t, ts.svc)
	if _, err := c2.Ping(2 * time.Second); err != nil {
		t.Errorf("Ping after restart: %v", err)
	}
}
