package netservice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// MessageTag is the 1-byte type discriminator every wire message begins
// with.
type MessageTag byte

const (
	TagJoinRoom    MessageTag = 1 // reserved
	TagLeaveRoom   MessageTag = 2 // reserved
	TagPlayerReady MessageTag = 3
	TagGameStart   MessageTag = 4
	TagCommand     MessageTag = 10
	TagCommandAck  MessageTag = 11
	TagSyncHash    MessageTag = 20
	TagPing        MessageTag = 30
	TagPong        MessageTag = 31
)

// ErrShortMessage is returned by any decoder handed too few bytes for its
// fixed fields.
var ErrShortMessage = errors.New("netservice: message too short")

// reliabilityFor reports the wire contract's delivery guarantee for tag:
// Ping/Pong are unreliable, everything else is reliable-ordered.
func reliabilityFor(tag MessageTag) Reliability {
	if tag == TagPing || tag == TagPong {
		return Unreliable
	}
	return ReliableOrdered
}

func writeFrame(tag MessageTag, body []byte) []byte {
	buf := make([]byte, 0, 1+len(body))
	buf = append(buf, byte(tag))
	return append(buf, body...)
}

type playerReadyMsg struct {
	PlayerID int32
	Ready    bool
}

func encodePlayerReady(m playerReadyMsg) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.PlayerID)
	ready := byte(0)
	if m.Ready {
		ready = 1
	}
	buf.WriteByte(ready)
	return writeFrame(TagPlayerReady, buf.Bytes())
}

func decodePlayerReady(body []byte) (playerReadyMsg, error) {
	if len(body) < 5 {
		return playerReadyMsg{}, ErrShortMessage
	}
	r := bytes.NewReader(body)
	var m playerReadyMsg
	binary.Read(r, binary.LittleEndian, &m.PlayerID)
	ready, _ := r.ReadByte()
	m.Ready = ready != 0
	return m, nil
}

type gameStartMsg struct {
	Seed           int32
	TickIntervalMs int32
	InputDelayTicks int32
	PlayerIDs      []int32
}

func encodeGameStart(m gameStartMsg) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Seed)
	binary.Write(buf, binary.LittleEndian, m.TickIntervalMs)
	binary.Write(buf, binary.LittleEndian, m.InputDelayTicks)
	binary.Write(buf, binary.LittleEndian, int32(len(m.PlayerIDs)))
	for _, pid := range m.PlayerIDs {
		binary.Write(buf, binary.LittleEndian, pid)
	}
	return writeFrame(TagGameStart, buf.Bytes())
}

func decodeGameStart(body []byte) (gameStartMsg, error) {
	if len(body) < 16 {
		return gameStartMsg{}, ErrShortMessage
	}
	r := bytes.NewReader(body)
	var m gameStartMsg
	binary.Read(r, binary.LittleEndian, &m.Seed)
	binary.Read(r, binary.LittleEndian, &m.TickIntervalMs)
	binary.Read(r, binary.LittleEndian, &m.InputDelayTicks)
	var n int32
	binary.Read(r, binary.LittleEndian, &n)
	m.PlayerIDs = make([]int32, n)
	for i := range m.PlayerIDs {
		if err := binary.Read(r, binary.LittleEndian, &m.PlayerIDs[i]); err != nil {
			return gameStartMsg{}, err
		}
	}
	return m, nil
}

type commandMsg struct {
	Tick     int32
	PlayerID int32
	CmdBytes []byte
}

func encodeCommandMsg(m commandMsg) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Tick)
	binary.Write(buf, binary.LittleEndian, m.PlayerID)
	binary.Write(buf, binary.LittleEndian, int32(len(m.CmdBytes)))
	buf.Write(m.CmdBytes)
	return writeFrame(TagCommand, buf.Bytes())
}

func decodeCommandMsg(body []byte) (commandMsg, error) {
	if len(body) < 12 {
		return commandMsg{}, ErrShortMessage
	}
	r := bytes.NewReader(body)
	var m commandMsg
	binary.Read(r, binary.LittleEndian, &m.Tick)
	binary.Read(r, binary.LittleEndian, &m.PlayerID)
	var n int32
	binary.Read(r, binary.LittleEndian, &n)
	m.CmdBytes = make([]byte, n)
	if _, err := io.ReadFull(r, m.CmdBytes); err != nil {
		return commandMsg{}, err
	}
	return m, nil
}

type syncHashMsg struct {
	Tick     int32
	Hash     int64
	PlayerID int32
}

func encodeSyncHash(m syncHashMsg) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Tick)
	binary.Write(buf, binary.LittleEndian, m.Hash)
	binary.Write(buf, binary.LittleEndian, m.PlayerID)
	return writeFrame(TagSyncHash, buf.Bytes())
}

func decodeSyncHash(body []byte) (syncHashMsg, error) {
	if len(body) < 16 {
		return syncHashMsg{}, ErrShortMessage
	}
	r := bytes.NewReader(body)
	var m syncHashMsg
	binary.Read(r, binary.LittleEndian, &m.Tick)
	binary.Read(r, binary.LittleEndian, &m.Hash)
	binary.Read(r, binary.LittleEndian, &m.PlayerID)
	return m, nil
}

type pingPongMsg struct {
	Timestamp int64
	Seq       int32
}

func encodePingPong(tag MessageTag, m pingPongMsg) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, m.Timestamp)
	binary.Write(buf, binary.LittleEndian, m.Seq)
	return writeFrame(tag, buf.Bytes())
}

func decodePingPong(body []byte) (pingPongMsg, error) {
	if len(body) < 12 {
		return pingPongMsg{}, ErrShortMessage
	}
	r := bytes.NewReader(body)
	var m pingPongMsg
	binary.Read(r, binary.LittleEndian, &m.Timestamp)
	binary.Read(r, binary.LittleEndian, &m.Seq)
	return m, nil
}
