package persist

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"io"
)

var (
	encryptionMagic = []byte("ENC1")

	ErrEncryptionKey = errors.New("persist: encryption key must be 16, 24, or 32 bytes")
	ErrDecryptFailed = errors.New("persist: decrypt failed")
)

// encryptingStore seals records with AES-GCM before they reach the inner store.
// Records written before encryption was enabled are returned as-is.
//
// Nonces are derived from the name and plaintext, so sealing the same record
// twice yields the same bytes and an unchanged Sync rewrites identical
// records. The cost is that equal records under one name are recognisable as
// equal in the store; distinct plaintexts never share a nonce.
type encryptingStore struct {
	inner  Store
	aead   cipher.AEAD
	nonces []byte
}

func newEncryptingStore(inner Store, key []byte) (Store, error) {
	if len(key) == 0 {
		return inner, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrEncryptionKey
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("persist record nonce"))
	return &encryptingStore{inner: inner, aead: aead, nonces: mac.Sum(nil)}, nil
}

func (s *encryptingStore) Driver() Driver { return s.inner.Driver() }

// Close closes the inner store when it holds resources.
func (s *encryptingStore) Close() error {
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *encryptingStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	body, ok, err := s.inner.Get(ctx, name)
	if err != nil || !ok {
		return body, ok, err
	}
	plain, err := s.decrypt(name, body)
	if err != nil {
		return nil, false, err
	}
	return plain, true, nil
}

func (s *encryptingStore) Set(ctx context.Context, name string, body []byte) error {
	enc, err := s.encrypt(name, body)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, name, enc)
}

// The record name is bound as additional data so a sealed record cannot be
// replayed under another name.
func (s *encryptingStore) encrypt(name string, plain []byte) ([]byte, error) {
	nonce := s.nonce(name, plain)
	ct := s.aead.Seal(nil, nonce, plain, []byte(name))
	buf := make([]byte, 0, len(encryptionMagic)+1+len(nonce)+len(ct))
	buf = append(buf, encryptionMagic...)
	buf = append(buf, byte(len(nonce)))
	buf = append(buf, nonce...)
	buf = append(buf, ct...)
	return buf, nil
}

// nonce is HMAC-SHA256(name, plaintext) under a key derived from the record
// key, truncated to the AEAD nonce size.
func (s *encryptingStore) nonce(name string, plain []byte) []byte {
	mac := hmac.New(sha256.New, s.nonces)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write(plain)
	return mac.Sum(nil)[:s.aead.NonceSize()]
}

func (s *encryptingStore) decrypt(name string, in []byte) ([]byte, error) {
	if len(in) < len(encryptionMagic)+1 {
		return in, nil
	}
	if !bytes.Equal(in[:len(encryptionMagic)], encryptionMagic) {
		return in, nil
	}
	nonceLen := int(in[len(encryptionMagic)])
	offset := len(encryptionMagic) + 1
	if len(in) < offset+nonceLen {
		return nil, ErrDecryptFailed
	}
	nonce := in[offset : offset+nonceLen]
	ct := in[offset+nonceLen:]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(name))
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
