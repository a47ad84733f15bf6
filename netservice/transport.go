package netservice

// PeerID identifies a connected peer from the transport's point of view —
// opaque to netservice beyond being a comparable key.
type PeerID uint64

// Reliability selects delivery guarantees for a single send. Command and
// room-management traffic is ReliableOrdered; Ping/Pong tolerates loss.
type Reliability int

const (
	ReliableOrdered Reliability = iota
	Unreliable
)

// Transport is the opaque networking capability the service is built on.
// Nothing above this interface knows or cares how bytes actually move —
// UDP, an in-memory bus for tests, anything that can deliver a byte slice
// to a peer implements it.
type Transport interface {
	Send(peer PeerID, data []byte, reliability Reliability) error
	Broadcast(data []byte, reliability Reliability) error
	// Poll delivers any messages received since the last call by invoking
	// dispatch once per message, synchronously, on the calling goroutine.
	Poll(dispatch func(from PeerID, data []byte)) error
}
