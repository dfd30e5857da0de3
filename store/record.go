package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Record binary layout, version 1. Offsets are load-bearing: the Lua scripts
// in this package parse the same bytes.
//
//	[0]     version
//	[1:9]   expiresAt, unix seconds, int64 big-endian
//	[9:11]  user id length, uint16 big-endian
//	[11:]   user id
const recordVersionV1 = 1

type record struct {
	UserID    string
	ExpiresAt int64
}

func encodeRecord(r *record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	if len(r.UserID) > 65535 {
		return nil, errors.New("record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(r.UserID)

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid record version")
	}

	r := &record{}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}

	var idLen uint16
	if err := binary.Read(reader, binary.BigEndian, &idLen); err != nil {
		return nil, err
	}

	userID := make([]byte, idLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	r.UserID = string(userID)

	return r, nil
}
