package netservice

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// udpReadBufferSize mirrors the teacher's large socket buffer tuning —
// lockstep traffic is small and infrequent compared to a snapshot-heavy
// server, but the low-latency intent carries over.
const udpReadBufferSize = 4 * 1024 * 1024

// maxUDPPayload is the largest safe UDP payload before IP fragmentation
// risk on a typical path MTU.
const maxUDPPayload = 1472

// readDeadline bounds each blocking read so Poll's caller (the host game
// loop) never stalls past one frame waiting on an idle socket.
const readDeadline = 2 * time.Millisecond

// UDPTransport is a Transport backed by a single UDP socket, addressing
// peers by their last-known UDP address. Reliability is a courtesy: lost
// ReliableOrdered sends are not retried here, and nothing above this
// transport re-sends them either. A receiving engine that never gets a
// command fills that slot by prediction, or pauses when prediction is off.
type UDPTransport struct {
	conn *net.UDPConn

	mu    sync.RWMutex
	peers map[PeerID]*net.UDPAddr
	addrs map[string]PeerID
	next  PeerID
}

// NewUDPTransport opens a UDP socket on port and returns a Transport bound
// to it.
func NewUDPTransport(port int) (*UDPTransport, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("netservice: resolve udp addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("netservice: listen udp: %w", err)
	}
	conn.SetReadBuffer(udpReadBufferSize)
	conn.SetWriteBuffer(udpReadBufferSize)

	return &UDPTransport{
		conn:  conn,
		peers: make(map[PeerID]*net.UDPAddr),
		addrs: make(map[string]PeerID),
		next:  1,
	}, nil
}

// AddPeer registers addr as a reachable peer and returns the PeerID future
// Send calls should use to reach it.
func (t *UDPTransport) AddPeer(addr *net.UDPAddr) PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := addr.String()
	if id, ok := t.addrs[key]; ok {
		return id
	}
	id := t.next
	t.next++
	t.peers[id] = addr
	t.addrs[key] = id
	return id
}

// Close releases the underlying socket.
func (t *UDPTransport) Close() error { return t.conn.Close() }

// Send implements Transport. Reliability is accepted for interface
// conformance only — UDP carries no delivery guarantee either way.
func (t *UDPTransport) Send(peer PeerID, data []byte, _ Reliability) error {
	t.mu.RLock()
	addr, ok := t.peers[peer]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("netservice: unknown peer %d", peer)
	}
	_, err := t.conn.WriteToUDP(data, addr)
	return err
}

// Broadcast implements Transport, sending data to every known peer.
func (t *UDPTransport) Broadcast(data []byte, reliability Reliability) error {
	t.mu.RLock()
	targets := make([]PeerID, 0, len(t.peers))
	for id := range t.peers {
		targets = append(targets, id)
	}
	t.mu.RUnlock()

	var firstErr error
	for _, id := range targets {
		if err := t.Send(id, data, reliability); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Poll implements Transport, draining every datagram currently available
// on the socket (bounded by readDeadline per read) and dispatching each to
// the caller, registering previously-unseen senders as new peers.
func (t *UDPTransport) Poll(dispatch func(from PeerID, data []byte)) error {
	buf := make([]byte, maxUDPPayload)
	for {
		t.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return nil
			}
			return err
		}
		peer := t.AddPeer(addr)
		data := make([]byte, n)
		copy(data, buf[:n])
		dispatch(peer, data)
	}
}
