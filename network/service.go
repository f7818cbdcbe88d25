package network

import (
	"crypto/tls"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/ricochet/core"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/state"
)

var ErrNoSink = errors.New("network service has no sink")

// Sink applies decoded control-surface messages
type Sink interface {
	SetVisual(v state.Visual)
	Tap(ms float64)
	MacroPad(x, y float64)
	Status() Status
}

// ControlSink writes remote input into the instrument's shared stores
type ControlSink struct {
	Global  *state.Store
	Visual  *state.VisualStore
	Tempo   *music.TapTempo
	Impacts func() uint64 // optional
}

// SetVisual publishes an analyzer reading
func (c *ControlSink) SetVisual(v state.Visual) { c.Visual.Set(v) }

// Tap feeds the shared tap estimator and publishes a changed tempo
func (c *ControlSink) Tap(ms float64) {
	if bpm, changed := c.Tempo.Tap(ms); changed {
		c.Global.Update(func(g *state.Global) { g.Tempo = bpm })
	}
}

// MacroPad applies a pad gesture
func (c *ControlSink) MacroPad(x, y float64) { c.Global.ApplyMacroPad(x, y) }

// Status summarizes the current state
func (c *ControlSink) Status() Status {
	g := c.Global.Load()
	s := Status{
		Tempo:   g.Tempo,
		Energy:  c.Visual.Get().Energy(),
		Playing: g.Playing,
		Chaos:   g.Chaos,
	}
	if c.Impacts != nil {
		s.Impacts = c.Impacts()
	}
	return s
}

// Service listens for control surfaces as a managed service
type Service struct {
	sink Sink

	mu       sync.Mutex
	config   *Config
	listener net.Listener
	peers    *peerManager
	stopCh   chan struct{}
	wg       sync.WaitGroup

	running  atomic.Bool
	disabled atomic.Bool
	received atomic.Uint64
	rejected atomic.Uint64
}

// NewService creates a network service feeding sink; disabled until Init supplies an address
func NewService(sink Sink) *Service {
	return &Service{sink: sink, config: DefaultConfig("")}
}

// Name implements service.Service
func (s *Service) Name() string { return "network" }

// Dependencies implements service.Service
func (s *Service) Dependencies() []string { return nil }

// Init implements service.Service
// args[0]: *Config (optional, overrides default)
func (s *Service) Init(args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(args) > 0 {
		if cfg, ok := args[0].(*Config); ok && cfg != nil {
			s.config = cfg
		}
	}
	if s.config.Address == "" {
		s.disabled.Store(true)
		return nil
	}
	if s.sink == nil {
		return ErrNoSink
	}
	s.disabled.Store(false)
	return nil
}

// Start implements service.Service; a no-op when disabled
func (s *Service) Start() error {
	if s.disabled.Load() {
		return nil
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ln net.Listener
	var err error
	if s.config.TLS != nil {
		ln, err = tls.Listen("tcp", s.config.Address, s.config.TLS)
	} else {
		ln, err = net.Listen("tcp", s.config.Address)
	}
	if err != nil {
		s.running.Store(false)
		return err
	}

	s.listener = ln
	s.stopCh = make(chan struct{})
	s.peers = newPeerManager(s.config)
	s.peers.onConnect = func(p *peer) { log.Printf("control surface %d connected from %s", p.id, p.addr) }
	s.peers.onDisconnect = func(p *peer) { log.Printf("control surface %d disconnected", p.id) }
	s.peers.onMessage = s.handle

	s.wg.Add(1)
	core.Go(s.acceptLoop)
	log.Printf("listening for control surfaces on %s", ln.Addr())
	return nil
}

func (s *Service) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			log.Printf("accept: %v", err)
			return
		}
		if _, err := s.peers.add(conn); err != nil {
			log.Printf("rejected %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// Stop implements service.Service; idempotent
func (s *Service) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.stopCh)
	s.listener.Close()
	s.wg.Wait()
	s.peers.closeAll()
	return nil
}

// handle applies one message; malformed payloads are counted and dropped
func (s *Service) handle(p *peer, msg *Message) {
	var err error
	switch msg.Type {
	case MsgHeartbeat:
		p.send(NewMessage(MsgStatus, EncodeStatus(s.sink.Status())))
		return
	case MsgVisual:
		var v state.Visual
		if v, err = DecodeVisual(msg.Payload); err == nil {
			s.sink.SetVisual(v)
		}
	case MsgTap:
		var ms float64
		if ms, err = DecodeTap(msg.Payload); err == nil {
			s.sink.Tap(ms)
		}
	case MsgMacroPad:
		var x, y float64
		if x, y, err = DecodeMacroPad(msg.Payload); err == nil {
			s.sink.MacroPad(x, y)
		}
	default:
		err = errors.New("unknown message type")
	}

	if err != nil {
		s.rejected.Add(1)
		log.Printf("peer %d message 0x%02x: %v", p.id, msg.Type, err)
		return
	}
	s.received.Add(1)
}

// Addr returns the bound address, nil when not listening
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || !s.running.Load() {
		return nil
	}
	return s.listener.Addr()
}

// PeerCount returns the number of connected control surfaces
func (s *Service) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peers == nil {
		return 0
	}
	return s.peers.count()
}

// Received returns the number of applied input messages, heartbeats excluded
func (s *Service) Received() uint64 { return s.received.Load() }

// Rejected returns the number of dropped messages
func (s *Service) Rejected() uint64 { return s.rejected.Load() }

// IsRunning reports whether the listener is open
func (s *Service) IsRunning() bool { return s.running.Load() }
