package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"
)

const (
	// MagicBytes identifies an infinity-clipboard record
	MagicBytes = "ICLP"

	// CurrentVersion is the current record format version
	CurrentVersion uint32 = 1

	// MaxHeaderSize limits header size to prevent memory issues
	MaxHeaderSize = 64 * 1024 // 64 KB

	// MaxPayloadSize limits payload size
	MaxPayloadSize = 256 * 1024 * 1024 // 256 MB

	// preambleSize is magic + version + header length
	preambleSize = 12

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

var (
	ErrInvalidMagic     = errors.New("invalid magic bytes")
	ErrInvalidVersion   = errors.New("unsupported record format version")
	ErrHeaderTooLarge   = errors.New("header size exceeds maximum")
	ErrPayloadTooLarge  = errors.New("payload size exceeds maximum")
	ErrChecksumMismatch = errors.New("checksum verification failed")
	ErrInvalidHeader    = errors.New("invalid header format")
	ErrKeyMismatch      = errors.New("record belongs to a different key")
)

// Record is one stored value together with its metadata
type Record struct {
	Key       string
	UpdatedAt time.Time
	Checksum  string
	Value     []byte
}

// NewRecord creates a record for key stamped with the current time
func NewRecord(key string, value []byte) *Record {
	sum := sha256.Sum256(value)
	return &Record{
		Key:       key,
		UpdatedAt: time.Now().UTC(),
		Checksum:  hex.EncodeToString(sum[:]),
		Value:     value,
	}
}

// header is the JSON metadata in the record preamble
type header struct {
	Key       string `json:"key"`
	UpdatedAt string `json:"updated_at"`
	Checksum  string `json:"checksum"`
	Size      int64  `json:"size"`
}

// Encode serializes a record:
//
//	"ICLP" | version uint32 BE | header length uint32 BE | JSON header | value
func Encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	if int64(len(rec.Value)) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	h := header{
		Key:       rec.Key,
		UpdatedAt: rec.UpdatedAt.Format(timestampFormat),
		Checksum:  rec.Checksum,
		Size:      int64(len(rec.Value)),
	}

	headerBytes, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, preambleSize+len(headerBytes)+len(rec.Value)))

	buf.WriteString(MagicBytes)

	if err := binary.Write(buf, binary.BigEndian, CurrentVersion); err != nil {
		return nil, err
	}

	if err := binary.Write(buf, binary.BigEndian, uint32(len(headerBytes))); err != nil {
		return nil, err
	}

	buf.Write(headerBytes)
	buf.Write(rec.Value)

	return buf.Bytes(), nil
}

// Decode deserializes and verifies a record
func Decode(data []byte) (*Record, error) {
	if len(data) < preambleSize {
		return nil, ErrInvalidMagic
	}

	reader := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(reader, magic); err != nil {
		return nil, err
	}
	if string(magic) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(reader, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version == 0 || version > CurrentVersion {
		return nil, ErrInvalidVersion
	}

	var headerLen uint32
	if err := binary.Read(reader, binary.BigEndian, &headerLen); err != nil {
		return nil, err
	}
	if headerLen > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, err
	}

	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, ErrInvalidHeader
	}

	if h.Size < 0 {
		return nil, ErrInvalidHeader
	}
	if h.Size > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, h.Size)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, err
	}

	checksum := sha256.Sum256(payload)
	if hex.EncodeToString(checksum[:]) != h.Checksum {
		return nil, ErrChecksumMismatch
	}

	updatedAt, err := parseTimestamp(h.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &Record{
		Key:       h.Key,
		UpdatedAt: updatedAt,
		Checksum:  h.Checksum,
		Value:     payload,
	}, nil
}

// DecodeValue decodes a record and checks it was stored under key
func DecodeValue(key string, data []byte) ([]byte, error) {
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if rec.Key != key {
		return nil, ErrKeyMismatch
	}
	return rec.Value, nil
}

func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		timestampFormat,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
	}
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unable to parse timestamp: " + s)
}
