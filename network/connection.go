package network

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/ricochet/core"
)

var ErrMaxPeers = errors.New("max peers reached")

// PeerID uniquely identifies a connected peer
type PeerID uint32

// peer is one remote control surface
type peer struct {
	id       PeerID
	addr     string
	lastSeen atomic.Int64 // UnixNano
	outSeq   atomic.Uint32
	closed   atomic.Bool

	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	cfg    *Config

	sendCh    chan *Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newPeer(id PeerID, conn net.Conn, cfg *Config) *peer {
	p := &peer{
		id:      id,
		addr:    conn.RemoteAddr().String(),
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		cfg:     cfg,
		sendCh:  make(chan *Message, cfg.SendQueueSize),
		closeCh: make(chan struct{}),
	}
	p.lastSeen.Store(time.Now().UnixNano())
	return p
}

// send queues a message; false when closed or the queue is full
func (p *peer) send(msg *Message) bool {
	if p.closed.Load() {
		return false
	}
	msg.Seq = p.outSeq.Add(1)
	select {
	case p.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.closeCh)
		p.conn.Close()
	})
}

// readLoop decodes messages until the connection fails or goes quiet past ReadTimeout
func (p *peer) readLoop(handler func(*peer, *Message)) {
	defer p.close()

	for {
		if p.cfg.ReadTimeout > 0 {
			p.conn.SetReadDeadline(time.Now().Add(p.cfg.ReadTimeout))
		}
		msg, err := Decode(p.reader)
		if err != nil {
			return
		}
		p.lastSeen.Store(time.Now().UnixNano())
		handler(p, msg)
	}
}

func (p *peer) writeLoop() {
	defer p.close()

	for {
		select {
		case <-p.closeCh:
			return
		case msg := <-p.sendCh:
			if p.cfg.WriteTimeout > 0 {
				p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
			}
			if err := msg.Encode(p.writer); err != nil {
				return
			}
			if err := p.writer.Flush(); err != nil {
				return
			}
		}
	}
}

// peerManager tracks live peers and their I/O goroutines
type peerManager struct {
	mu     sync.RWMutex
	peers  map[PeerID]*peer
	nextID atomic.Uint32
	cfg    *Config
	wg     sync.WaitGroup

	onConnect    func(*peer)
	onDisconnect func(*peer)
	onMessage    func(*peer, *Message)
}

func newPeerManager(cfg *Config) *peerManager {
	return &peerManager{peers: make(map[PeerID]*peer), cfg: cfg}
}

// add registers a connection and starts its loops; the connection is closed on error
func (pm *peerManager) add(conn net.Conn) (PeerID, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.peers) >= pm.cfg.MaxPeers {
		conn.Close()
		return 0, ErrMaxPeers
	}

	p := newPeer(PeerID(pm.nextID.Add(1)), conn, pm.cfg)
	pm.peers[p.id] = p

	pm.wg.Add(3)
	core.Go(func() {
		defer pm.wg.Done()
		p.readLoop(pm.onMessage)
	})
	core.Go(func() {
		defer pm.wg.Done()
		p.writeLoop()
	})
	core.Go(func() {
		defer pm.wg.Done()
		pm.monitor(p)
	})

	if pm.onConnect != nil {
		pm.onConnect(p)
	}
	return p.id, nil
}

// monitor removes a peer once it closes
func (pm *peerManager) monitor(p *peer) {
	<-p.closeCh

	pm.mu.Lock()
	delete(pm.peers, p.id)
	pm.mu.Unlock()

	if pm.onDisconnect != nil {
		pm.onDisconnect(p)
	}
}

func (pm *peerManager) count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// closeAll disconnects every peer and waits for their goroutines
func (pm *peerManager) closeAll() {
	pm.mu.RLock()
	for _, p := range pm.peers {
		p.close()
	}
	pm.mu.RUnlock()
	pm.wg.Wait()
}
