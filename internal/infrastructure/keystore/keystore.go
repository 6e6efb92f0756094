package keystore

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// StaticKeyStore holds the HMAC keys used to sign audit entries.
type StaticKeyStore struct {
	keys         map[string][]byte
	defaultKeyID string
}

// NewFromEnv builds a keystore from environment variables.
// AUDIT_SIGNING_KEYS format: "keyId:hex,keyId2:hex".
// AUDIT_DEFAULT_KEY_ID sets the key used for new entries; older keys stay
// loaded so historical entries remain verifiable.
func NewFromEnv() (*StaticKeyStore, error) {
	keys := make(map[string][]byte)
	raw := os.Getenv("AUDIT_SIGNING_KEYS")
	if raw != "" {
		pairs := strings.Split(raw, ",")
		for _, p := range pairs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return nil, errors.New("invalid AUDIT_SIGNING_KEYS format")
			}
			keyID := parts[0]
			bytes, err := hex.DecodeString(parts[1])
			if err != nil {
				return nil, err
			}
			keys[keyID] = bytes
		}
	}

	return &StaticKeyStore{
		keys:         keys,
		defaultKeyID: os.Getenv("AUDIT_DEFAULT_KEY_ID"),
	}, nil
}

func (s *StaticKeyStore) GetKey(ctx context.Context, keyID string) ([]byte, error) {
	_ = ctx
	key, ok := s.keys[keyID]
	if !ok {
		return nil, errors.New("key not found")
	}
	return key, nil
}

// SigningKey returns the key new audit entries are signed with, or nil when
// signing is not configured (entries fall back to a plain digest).
func (s *StaticKeyStore) SigningKey() []byte {
	if s.defaultKeyID == "" {
		return nil
	}
	return s.keys[s.defaultKeyID]
}

// AllKeys returns every loaded key for verification sweeps.
func (s *StaticKeyStore) AllKeys() [][]byte {
	out := make([][]byte, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k)
	}
	return out
}
