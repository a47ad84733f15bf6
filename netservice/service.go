// Package netservice is the thin broker between an opaque Transport and the
// lockstep engine: it tracks rooms and players, decodes wire messages, and
// routes them to the engine's input buffer and sync-hash bookkeeping.
package netservice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xpTURN/Lockstep/command"
)

// ErrAlreadyInRoom is returned by CreateRoom/JoinRoom when the local player
// already belongs to a room.
var ErrAlreadyInRoom = errors.New("netservice: already in a room")

// ErrRoomFull is returned by JoinRoom when the target room is at capacity.
var ErrRoomFull = errors.New("netservice: room full")

// Player tracks one participant's room membership, readiness, and
// round-trip latency.
type Player struct {
	ID    int32
	Name  string
	Ready bool
	Ping  time.Duration
}

// Room is the lobby state shared by every player before a game starts.
type Room struct {
	ID         string
	Name       string
	MaxPlayers int
	Players    map[int32]*Player
	HostID     int32
}

// EngineSink is what the engine exposes to the network layer: a place to
// deposit received commands and sync hashes.
type EngineSink interface {
	OnCommandReceived(cmd command.Command) error
	OnSyncHashReceived(tick int32, remoteHash uint64, fromPlayerID int32)
}

// Service is the network-facing half of a lockstep session: it owns room
// and player bookkeeping, decodes incoming wire messages, and forwards
// engine-relevant ones (Command, SyncHash) to an EngineSink.
type Service struct {
	transport Transport
	registry  *command.Registry
	engine    EngineSink
	log       *logrus.Entry

	mu            sync.Mutex
	room          *Room
	localPlayerID int32
	isHost        bool

	pendingPings map[int32]time.Time
	pingSeq      int32

	// hostGameParams caches the values the host last passed to SetReady, so
	// a GameStart broadcast triggered later by a remote PlayerReady arrival
	// (rather than by the host's own SetReady call) still has them to hand.
	hostGameParams struct {
		seed, tickIntervalMs, inputDelayTicks int32
	}

	onGameStart  func(seed, tickIntervalMs, inputDelayTicks int32, playerIDs []int32)
	onPlayerJoin func(playerID int32)

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewService constructs a Service bound to transport, decoding commands
// with registry and forwarding them to engine.
func NewService(transport Transport, registry *command.Registry, engine EngineSink, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		transport:    transport,
		registry:     registry,
		engine:       engine,
		log:          log,
		pendingPings: make(map[int32]time.Time),
	}
}

// SetEngine attaches the sink Command and SyncHash messages are routed to.
// Host and peer mains construct a Service before the engine that broadcasts
// through it, so this breaks the construction cycle between the two.
func (s *Service) SetEngine(engine EngineSink) {
	s.engine = engine
}

// LocalPlayerID returns the player ID assigned to this Service by
// CreateRoom or JoinRoom.
func (s *Service) LocalPlayerID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPlayerID
}

// OnGameStart registers the single subscriber notified when a GameStart
// message arrives (peers) or is sent (host, once SetReady or an arriving
// PlayerReady finds every player ready).
func (s *Service) OnGameStart(fn func(seed, tickIntervalMs, inputDelayTicks int32, playerIDs []int32)) {
	s.onGameStart = fn
}

// CreateRoom creates a new room with the local player as host at player ID 0.
func (s *Service) CreateRoom(name string, maxPlayers int) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		return nil, ErrAlreadyInRoom
	}
	room := &Room{
		ID:         uuid.NewString(),
		Name:       name,
		MaxPlayers: maxPlayers,
		Players:    make(map[int32]*Player),
		HostID:     0,
	}
	room.Players[0] = &Player{ID: 0, Name: "host"}
	s.room = room
	s.localPlayerID = 0
	s.isHost = true
	return room, nil
}

// JoinRoom joins an existing room as a non-host participant, assigned the
// next free player ID.
func (s *Service) JoinRoom(room *Room, playerName string) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		return 0, ErrAlreadyInRoom
	}
	if len(room.Players) >= room.MaxPlayers {
		return 0, ErrRoomFull
	}
	var id int32
	for {
		if _, taken := room.Players[id]; !taken {
			break
		}
		id++
	}
	room.Players[id] = &Player{ID: id, Name: playerName}
	s.room = room
	s.localPlayerID = id
	s.isHost = false
	return id, nil
}

// LeaveRoom removes the local player from its current room, if any.
func (s *Service) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	delete(s.room.Players, s.localPlayerID)
	s.room = nil
}

// SetReady marks the local player ready and broadcasts the change. If the
// local player is host and every player is now ready, a GameStart message
// is broadcast.
func (s *Service) SetReady(ready bool, seed, tickIntervalMs, inputDelayTicks int32) error {
	s.mu.Lock()
	room := s.room
	localID := s.localPlayerID
	if room != nil {
		if p, ok := room.Players[localID]; ok {
			p.Ready = ready
		}
	}
	s.mu.Unlock()
	if room == nil {
		return nil
	}

	if err := s.transport.Broadcast(encodePlayerReady(playerReadyMsg{PlayerID: localID, Ready: ready}), reliabilityFor(TagPlayerReady)); err != nil {
		return err
	}

	if !s.isHost {
		return nil
	}
	s.mu.Lock()
	s.hostGameParams.seed = seed
	s.hostGameParams.tickIntervalMs = tickIntervalMs
	s.hostGameParams.inputDelayTicks = inputDelayTicks
	s.mu.Unlock()

	if !s.allPlayersReady() {
		return nil
	}
	return s.broadcastGameStart(seed, tickIntervalMs, inputDelayTicks)
}

func (s *Service) allPlayersReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || len(s.room.Players) == 0 {
		return false
	}
	for _, p := range s.room.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (s *Service) broadcastGameStart(seed, tickIntervalMs, inputDelayTicks int32) error {
	s.mu.Lock()
	ids := make([]int32, 0, len(s.room.Players))
	for id := range s.room.Players {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	if err := s.transport.Broadcast(encodeGameStart(gameStartMsg{
		Seed:            seed,
		TickIntervalMs:  tickIntervalMs,
		InputDelayTicks: inputDelayTicks,
		PlayerIDs:       ids,
	}), reliabilityFor(TagGameStart)); err != nil {
		return err
	}
	if s.onGameStart != nil {
		s.onGameStart(seed, tickIntervalMs, inputDelayTicks, ids)
	}
	return nil
}

// BroadcastCommand broadcasts a locally produced command to every peer,
// reliable-ordered. This satisfies engine.Broadcaster.
func (s *Service) BroadcastCommand(cmd command.Command) error {
	wire, err := cmd.Serialize()
	if err != nil {
		return err
	}
	return s.transport.Broadcast(encodeCommandMsg(commandMsg{
		Tick:     cmd.Tick,
		PlayerID: cmd.PlayerID,
		CmdBytes: wire,
	}), reliabilityFor(TagCommand))
}

// BroadcastSyncHash broadcasts a periodic checkpoint hash, reliable-ordered.
// This satisfies engine.Broadcaster.
func (s *Service) BroadcastSyncHash(tick int32, hash uint64, playerID int32) error {
	return s.transport.Broadcast(encodeSyncHash(syncHashMsg{
		Tick:     tick,
		Hash:     int64(hash),
		PlayerID: playerID,
	}), reliabilityFor(TagSyncHash))
}

// Ping sends an unreliable ping to peer, recording the send time for RTT
// measurement when the matching Pong arrives.
func (s *Service) Ping(peer PeerID) error {
	s.mu.Lock()
	s.pingSeq++
	seq := s.pingSeq
	s.pendingPings[seq] = time.Now()
	s.mu.Unlock()

	return s.transport.Send(peer, encodePingPong(TagPing, pingPongMsg{
		Timestamp: time.Now().UnixNano(),
		Seq:       seq,
	}), reliabilityFor(TagPing))
}

// Poll drains one round of transport messages, dispatching each to its
// handler synchronously on the calling goroutine — this is the boundary
// spec.md requires between any transport I/O thread and the game loop.
func (s *Service) Poll() error {
	return s.transport.Poll(func(from PeerID, data []byte) {
		if len(data) == 0 {
			return
		}
		s.dispatch(from, MessageTag(data[0]), data[1:])
	})
}

func (s *Service) dispatch(from PeerID, tag MessageTag, body []byte) {
	switch tag {
	case TagPlayerReady:
		msg, err := decodePlayerReady(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed PlayerReady")
			return
		}
		s.handlePlayerReady(msg)
		if s.isHost && s.allPlayersReady() {
			s.mu.Lock()
			params := s.hostGameParams
			s.mu.Unlock()
			if err := s.broadcastGameStart(params.seed, params.tickIntervalMs, params.inputDelayTicks); err != nil {
				s.log.WithError(err).Error("failed to broadcast game start")
			}
		}

	case TagGameStart:
		msg, err := decodeGameStart(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed GameStart")
			return
		}
		if s.onGameStart != nil {
			s.onGameStart(msg.Seed, msg.TickIntervalMs, msg.InputDelayTicks, msg.PlayerIDs)
		}

	case TagCommand:
		msg, err := decodeCommandMsg(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed Command")
			return
		}
		cmd, err := s.registry.Decode(msg.CmdBytes)
		if err != nil {
			s.log.WithError(err).Warn("dropping command with unrecognized kind")
			return
		}
		if err := s.engine.OnCommandReceived(cmd); err != nil {
			s.log.WithError(err).Error("engine rejected received command")
		}

	case TagSyncHash:
		msg, err := decodeSyncHash(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed SyncHash")
			return
		}
		s.engine.OnSyncHashReceived(msg.Tick, uint64(msg.Hash), msg.PlayerID)

	case TagPing:
		msg, err := decodePingPong(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed Ping")
			return
		}
		if err := s.transport.Send(from, encodePingPong(TagPong, msg), reliabilityFor(TagPong)); err != nil {
			s.log.WithError(err).Warn("failed to reply with Pong")
		}

	case TagPong:
		msg, err := decodePingPong(body)
		if err != nil {
			s.log.WithError(err).Warn("dropping malformed Pong")
			return
		}
		s.handlePong(msg)

	default:
		s.log.WithField("tag", tag).Warn("dropping message with unknown tag")
	}
}

func (s *Service) handlePlayerReady(msg playerReadyMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	p, ok := s.room.Players[msg.PlayerID]
	if !ok {
		p = &Player{ID: msg.PlayerID}
		s.room.Players[msg.PlayerID] = p
	}
	p.Ready = msg.Ready
}

func (s *Service) handlePong(msg pingPongMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sentAt, ok := s.pendingPings[msg.Seq]
	if !ok {
		return
	}
	delete(s.pendingPings, msg.Seq)
	rtt := time.Since(sentAt)
	if p, ok := s.room.Players[s.localPlayerID]; ok {
		p.Ping = rtt
	}
}

// ClearOldData is a placeholder join point for pruning any per-tick
// bookkeeping the network layer itself accumulates (the engine owns its
// own input-buffer and sync-hash pruning via cleanupOldData). Currently a
// no-op since pendingPings is already bounded by ping/pong round trips.
func (s *Service) ClearOldData(tick int32) {}

// Run starts a background poll loop at the given interval, using an
// errgroup so the caller can wait for a clean shutdown via Stop.
func (s *Service) Run(ctx context.Context, pollInterval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	group.Go(func() error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := s.Poll(); err != nil {
					s.log.WithError(err).Error("poll failed")
				}
			}
		}
	})
}

// Stop cancels the background poll loop and waits for it to exit.
func (s *Service) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	err := s.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
