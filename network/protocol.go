package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/lixenwraith/ricochet/state"
)

// MessageType identifies the semantic meaning of a message
type MessageType uint8

const (
	// Control messages
	MsgHeartbeat MessageType = 0x01 // answered with MsgStatus
	MsgStatus    MessageType = 0x02

	// Control-surface input
	MsgVisual   MessageType = 0x10 // motion, brightness, hue
	MsgTap      MessageType = 0x11 // tap timestamp in ms
	MsgMacroPad MessageType = 0x12 // pad x, y in [0,1]
)

// HeaderSize is the fixed frame header: [Type:1][Flags:1][Seq:4][Len:2]
const HeaderSize = 8

// MaxPayload is the largest payload a frame can carry
const MaxPayload = math.MaxUint16

var (
	ErrPayloadSize = errors.New("payload exceeds maximum size")
	ErrPayload     = errors.New("malformed payload")
)

// Message is one framed message
type Message struct {
	Type    MessageType
	Flags   uint8
	Seq     uint32 // sender's sequence number
	Payload []byte
}

// NewMessage creates a message with the given type and payload
func NewMessage(t MessageType, payload []byte) *Message {
	return &Message{Type: t, Payload: payload}
}

// Encode writes the header and payload
func (m *Message) Encode(w io.Writer) error {
	n := len(m.Payload)
	if n > MaxPayload {
		return fmt.Errorf("%d bytes: %w", n, ErrPayloadSize)
	}

	var header [HeaderSize]byte
	header[0] = byte(m.Type)
	header[1] = m.Flags
	binary.BigEndian.PutUint32(header[2:6], m.Seq)
	binary.BigEndian.PutUint16(header[6:8], uint16(n))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if n > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one message
func Decode(r io.Reader) (*Message, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	m := &Message{
		Type:  MessageType(header[0]),
		Flags: header[1],
		Seq:   binary.BigEndian.Uint32(header[2:6]),
	}
	if n := binary.BigEndian.Uint16(header[6:8]); n > 0 {
		m.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Payload codecs; floats travel as big-endian float32 except tap timestamps

func putFloat32s(vals ...float64) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(b[4*i:], math.Float32bits(float32(v)))
	}
	return b
}

func float32At(b []byte, i int) float64 {
	return float64(math.Float32frombits(binary.BigEndian.Uint32(b[4*i:])))
}

// EncodeVisual packs an analyzer reading
func EncodeVisual(v state.Visual) []byte {
	return putFloat32s(v.Motion, v.Brightness, v.Hue)
}

// DecodeVisual unpacks an analyzer reading; ranges are clamped by the store
func DecodeVisual(b []byte) (state.Visual, error) {
	if len(b) != 12 {
		return state.Visual{}, fmt.Errorf("visual: %d bytes: %w", len(b), ErrPayload)
	}
	return state.Visual{Motion: float32At(b, 0), Brightness: float32At(b, 1), Hue: float32At(b, 2)}, nil
}

// EncodeTap packs a tap timestamp in milliseconds
func EncodeTap(ms float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(ms))
	return b
}

// DecodeTap unpacks a tap timestamp
func DecodeTap(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("tap: %d bytes: %w", len(b), ErrPayload)
	}
	ms := math.Float64frombits(binary.BigEndian.Uint64(b))
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("tap: non-finite timestamp: %w", ErrPayload)
	}
	return ms, nil
}

// EncodeMacroPad packs a pad position
func EncodeMacroPad(x, y float64) []byte {
	return putFloat32s(x, y)
}

// DecodeMacroPad unpacks a pad position
func DecodeMacroPad(b []byte) (x, y float64, err error) {
	if len(b) != 8 {
		return 0, 0, fmt.Errorf("macro pad: %d bytes: %w", len(b), ErrPayload)
	}
	return float32At(b, 0), float32At(b, 1), nil
}

// Status is the instrument summary returned for each heartbeat
type Status struct {
	Tempo   float64
	Energy  float64
	Playing bool
	Chaos   bool
	Impacts uint64
}

const (
	statusPlaying = 1 << iota
	statusChaos
)

// EncodeStatus packs [Tempo:f32][Energy:f32][Flags:1][Impacts:8]
func EncodeStatus(s Status) []byte {
	b := putFloat32s(s.Tempo, s.Energy)
	var flags byte
	if s.Playing {
		flags |= statusPlaying
	}
	if s.Chaos {
		flags |= statusChaos
	}
	b = append(b, flags)
	return binary.BigEndian.AppendUint64(b, s.Impacts)
}

// DecodeStatus unpacks a status payload
func DecodeStatus(b []byte) (Status, error) {
	if len(b) != 17 {
		return Status{}, fmt.Errorf("status: %d bytes: %w", len(b), ErrPayload)
	}
	return Status{
		Tempo:   float32At(b, 0),
		Energy:  float32At(b, 1),
		Playing: b[8]&statusPlaying != 0,
		Chaos:   b[8]&statusChaos != 0,
		Impacts: binary.BigEndian.Uint64(b[9:]),
	}, nil
}
