package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "acs")
	return store, mr, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testRecord() *Record {
	now := time.Now()
	return &Record{
		UserID:    "u-1",
		ExpiresAt: now.Add(15 * time.Minute).Unix(),
		SavedAt:   now.Unix(),
		Cookies: []Cookie{
			{Name: "access_token", Value: "a.b.c"},
			{Name: "refresh_token", Value: "r-1", Expires: now.Add(time.Hour).Unix()},
		},
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	in := testRecord()
	if err := store.Save(ctx, "default", in, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.Load(ctx, "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.UserID != in.UserID || out.ExpiresAt != in.ExpiresAt {
		t.Fatalf("unexpected record: %+v", out)
	}
	if len(out.Cookies) != 2 || out.Cookies[1].Name != "refresh_token" || out.Cookies[1].Value != "r-1" {
		t.Fatalf("cookies not preserved: %+v", out.Cookies)
	}
	if out.Version != recordFormatVersionCurrent {
		t.Fatalf("expected version %d, got %d", recordFormatVersionCurrent, out.Version)
	}
}

func TestRedisStoreTTLExpires(t *testing.T) {
	store, mr, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "default", testRecord(), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := store.Load(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "default", testRecord(), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "default"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "default"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Load(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreCorruptBlobDeleted(t *testing.T) {
	store, _, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, store.key("bad"), []byte("not cbor"), time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	if _, err := store.Load(ctx, "bad"); !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt, got %v", err)
	}
	if n := rdb.Exists(ctx, store.key("bad")).Val(); n != 0 {
		t.Fatalf("expected corrupt key removed, exists=%d", n)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr, _, done := newRedisStoreTest(t)
	defer done()
	mr.Close()

	err := store.Save(context.Background(), "default", testRecord(), time.Hour)
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, "k", testRecord(), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Load(ctx, "k"); err != nil {
		t.Fatalf("load before expiry: %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := store.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	if _, err := Encode(&Record{}); err == nil {
		t.Fatal("expected error encoding record without userID")
	}

	future, err := encMode.Marshal(&Record{Version: 9, UserID: "u"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(future); !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected unsupported version rejected, got %v", err)
	}
}

func TestRecordExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := &Record{UserID: "u", ExpiresAt: now.Unix()}
	if !r.Expired(now) {
		t.Fatal("expected expired at boundary")
	}
	r.ExpiresAt = now.Add(time.Second).Unix()
	if r.Expired(now) {
		t.Fatal("expected not expired")
	}
	r.ExpiresAt = 0
	if r.Expired(now) {
		t.Fatal("zero expiry means unknown, not expired")
	}
}
