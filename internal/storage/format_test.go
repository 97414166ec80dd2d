package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	rec := NewRecord("infinityClipboardData", []byte(`[{"id":1}]`))

	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte(MagicBytes)) {
		t.Fatalf("encoded data missing magic prefix")
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Key != rec.Key {
		t.Errorf("Key = %q, want %q", got.Key, rec.Key)
	}
	if !bytes.Equal(got.Value, rec.Value) {
		t.Errorf("Value = %q, want %q", got.Value, rec.Value)
	}
	if !got.UpdatedAt.Equal(rec.UpdatedAt.Truncate(1e6)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, rec.UpdatedAt)
	}
}

func TestEncodeDecodeEmptyValue(t *testing.T) {
	data, err := Encode(NewRecord("k", nil))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Value) != 0 {
		t.Errorf("Value = %q, want empty", got.Value)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(NewRecord("k", []byte("hello")))
	if err != nil {
		t.Fatal(err)
	}

	corrupted := append([]byte(nil), valid...)
	corrupted[len(corrupted)-1] ^= 0xff

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "NOPE")

	badVersion := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badVersion[4:8], CurrentVersion+1)

	hugeHeader := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(hugeHeader[8:12], MaxHeaderSize+1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", []byte("ICL"), ErrInvalidMagic},
		{"bad magic", badMagic, ErrInvalidMagic},
		{"future version", badVersion, ErrInvalidVersion},
		{"header too large", hugeHeader, ErrHeaderTooLarge},
		{"payload corrupted", corrupted, ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	valid, err := Encode(NewRecord("k", []byte("hello world")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(valid[:len(valid)-3]); err == nil {
		t.Error("Decode() of truncated record should fail")
	}
}

func TestDecodeValueKeyMismatch(t *testing.T) {
	data, err := Encode(NewRecord("infinityClipboardNextId", []byte("4")))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeValue("infinityClipboardData", data); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("DecodeValue() error = %v, want %v", err, ErrKeyMismatch)
	}

	got, err := DecodeValue("infinityClipboardNextId", data)
	if err != nil || string(got) != "4" {
		t.Errorf("DecodeValue() = %q, %v", got, err)
	}
}
