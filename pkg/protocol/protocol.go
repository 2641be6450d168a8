package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// [Magic 1B] [Op 1B] [KeyLen 2B] [ValLen 4B] [Key] [Value]

const (
	MagicNumber = 0x52
	HeaderSize  = 8
	MaxValueLen = 16 << 20

	OpEnroll       = 0x01 // Value = JSON record
	OpGet          = 0x02 // Key = enrollment number
	OpWithdraw     = 0x03 // Key = enrollment number
	OpList         = 0x04
	OpFindRoll     = 0x05 // Key = decimal roll number
	OpFindDivision = 0x06 // Key = decimal division id
	OpFindName     = 0x07 // Key = name fragment

	RespOK       = 0x00
	RespVal      = 0x01 // Value = JSON record or array
	RespNotFound = 0x02
	RespConflict = 0x03 // enrollment number already registered
	RespInvalid  = 0x04 // record failed validation
	RespErr      = 0xFF // Value = message
)

var (
	ErrInvalidMagic  = errors.New("invalid magic number")
	ErrValueTooLarge = errors.New("value exceeds maximum frame size")
	ErrKeyTooLarge   = errors.New("key exceeds 65535 bytes")
)

type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	if len(key) > 0xFFFF {
		return ErrKeyTooLarge
	}
	if len(value) > MaxValueLen {
		return ErrValueTooLarge
	}

	frame := make([]byte, HeaderSize+len(key)+len(value))
	frame[0] = MagicNumber
	frame[1] = op
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(value)))
	copy(frame[HeaderSize:], key)
	copy(frame[HeaderSize+len(key):], value)

	_, err := w.Write(frame)
	return err
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, ErrInvalidMagic
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])
	if vLen > MaxValueLen {
		return nil, ErrValueTooLarge
	}

	body := make([]byte, int(kLen)+int(vLen))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: body[:kLen], Value: body[kLen:]}, nil
}
