package session

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const recordFormatVersionCurrent = 1

// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("session: cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 256,
		MaxMapPairs:      64,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("session: cbor dec mode: %v", err))
	}
}

// Encode serializes r as deterministic CBOR.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil record")
	}
	if r.UserID == "" {
		return nil, errors.New("record userID required")
	}
	out := *r
	out.Version = recordFormatVersionCurrent
	return encMode.Marshal(&out)
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if r.Version == 0 || r.Version > recordFormatVersionCurrent {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrRecordCorrupt, r.Version)
	}
	if r.UserID == "" {
		return nil, fmt.Errorf("%w: missing userID", ErrRecordCorrupt)
	}
	return &r, nil
}
