package secrets

import (
	"context"
	"os"
	"strings"
)

// EnvStore resolves secrets from the process environment on every lookup.
type EnvStore struct {
	lookup func(string) (string, bool)
}

func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

func (s *EnvStore) Lookup(_ context.Context, key string) (string, bool) {
	v, ok := s.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
