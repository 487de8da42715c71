package session

import "time"

// Record is the persisted snapshot of an authenticated client session.
//
// It carries just enough to resume on restart: the identity, the credential
// cookies scoped to the API origin, and the known expiry.
type Record struct {
	Version   uint8    `cbor:"1,keyasint"`
	UserID    string   `cbor:"2,keyasint"`
	ExpiresAt int64    `cbor:"3,keyasint"`
	SavedAt   int64    `cbor:"4,keyasint"`
	Cookies   []Cookie `cbor:"5,keyasint,omitempty"`
}

// Cookie is a credential cookie as seen by the client for the API origin.
type Cookie struct {
	Name    string `cbor:"1,keyasint"`
	Value   string `cbor:"2,keyasint"`
	Expires int64  `cbor:"3,keyasint,omitempty"`
}

// Expired reports whether the record's session expiry has passed at now.
func (r *Record) Expired(now time.Time) bool {
	if r == nil {
		return true
	}
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}
