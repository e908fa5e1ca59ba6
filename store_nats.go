package persist

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/nats-io/nats.go"
)

// NATSKeyValue captures the subset of nats.KeyValue used by the store.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
}

var errNATSUnavailable = errors.New("nats persist key-value unavailable")

type natsStore struct {
	kv     NATSKeyValue
	prefix string
}

func newNATSStore(kv NATSKeyValue, prefix string) Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &natsStore{kv: kv, prefix: prefix}
}

func (s *natsStore) Driver() Driver { return DriverNATS }

func (s *natsStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	if s.kv == nil {
		return nil, false, errNATSUnavailable
	}
	entry, err := s.kv.Get(s.recordKey(name))
	if isNATSMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.Operation() == nats.KeyValueDelete || entry.Operation() == nats.KeyValuePurge {
		return nil, false, nil
	}
	return cloneBytes(entry.Value()), true, nil
}

func (s *natsStore) Set(_ context.Context, name string, body []byte) error {
	if s.kv == nil {
		return errNATSUnavailable
	}
	_, err := s.kv.Put(s.recordKey(name), cloneBytes(body))
	return err
}

// recordKey base64-encodes both parts; NATS keys cannot hold the slashes
// allowed in record names.
func (s *natsStore) recordKey(name string) string {
	return "p." + encodeNATSKeyPart(s.prefix) + ".k." + encodeNATSKeyPart(name)
}

func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}
