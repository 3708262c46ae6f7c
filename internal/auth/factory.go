package auth

import (
	"context"
	"fmt"
	"io"

	"github.com/casadocigano/fidelidade/internal/errors"
)

// Backend names accepted by session.backend.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a Store.
type Options struct {
	Backend string
	Dir     string
	Redis   RedisOptions
}

// NewStore builds the Store named by opts.Backend. An empty backend means file.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "session.dir is empty").
				WithSuggestion("Set session.dir or FIDELIDADE_HOME")
		}
		return NewFileStore(opts.Dir), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if opts.Redis.Addr == "" {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "redis.addr is required for the redis session backend")
		}
		return NewRedisStore(ctx, opts.Redis)
	default:
		return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown session backend %q", opts.Backend)).
			WithSuggestion("Use one of: file, redis, memory")
	}
}

// CloseStore releases resources held by stores that own connections.
func CloseStore(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
