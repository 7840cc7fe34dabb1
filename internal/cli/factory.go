// Package cli wires configuration into engines and stores for the parley
// commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/dialogues/fruitseller"
	"github.com/aretw0/parley/pkg/adapters/dynamodb"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/aretw0/parley/pkg/adapters/template"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
)

// Stack is a fully wired engine and the resources it holds.
type Stack struct {
	Engine  *parley.Engine
	Store   ports.SnapshotStore
	Loader  *template.Loader
	Metrics *observability.Metrics

	closers []io.Closer
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Dialogues returns the dialogues built into the binary.
func Dialogues(logger *slog.Logger) ([]parley.Dialogue, error) {
	fs, err := fruitseller.New(fruitseller.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return []parley.Dialogue{fs}, nil
}

// OpenStore builds the snapshot store described by cfg, wrapped with the
// configured PII masking and encryption. The locker is nil unless
// store.lock is set. The closer may be nil.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.SnapshotStore, ports.DistributedLocker, io.Closer, error) {
	var (
		store  ports.SnapshotStore
		locker ports.DistributedLocker
		closer io.Closer
	)
	sc := cfg.Store
	switch sc.Driver {
	case config.DriverMemory, "":
		store = memory.NewStore()
	case config.DriverFile:
		store = file.New(sc.Path)
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sc.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		store, closer = s, s
	case config.DriverRedis:
		opts := []redis.Option{redis.WithPrefix(sc.Prefix)}
		if ttl := sc.TTL(); ttl > 0 {
			opts = append(opts, redis.WithTTL(ttl))
		}
		s := redis.New(sc.Address, sc.Password, sc.DB, opts...)
		store, closer = s, s
		if sc.Lock {
			locker = redis.NewLocker(s.Client(), sc.Prefix+"lock:")
		}
	case config.DriverDynamoDB:
		var opts []dynamodb.Option
		if ttl := sc.TTL(); ttl > 0 {
			opts = append(opts, dynamodb.WithTTL(ttl))
		}
		s, err := dynamodb.New(ctx, sc.Table, sc.Region, sc.Profile, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, sc.Driver)
	}

	mws, err := storeMiddleware(cfg.Security)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}

func storeMiddleware(sec config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sec.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(sec.PIIPatterns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		mws = append(mws, pii)
	}
	if sec.EncryptionKey != "" {
		active, err := middleware.ParseKey(sec.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption_key: %v", config.ErrInvalid, err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range sec.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("%w: fallback_keys[%d]: %v", config.ErrInvalid, i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}

// Build wires an engine from cfg. Lifecycle hooks always log; metrics are
// recorded when withMetrics is set.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, withMetrics bool) (*Stack, error) {
	store, locker, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stack := &Stack{Store: store}
	if closer != nil {
		stack.closers = append(stack.closers, closer)
	}

	dialogues, err := Dialogues(logger)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	hooks := observability.LogHooks(logger)
	if withMetrics {
		stack.Metrics = observability.NewMetrics()
		hooks = observability.Combine(hooks, stack.Metrics.Hooks())
	}

	opts := []parley.Option{
		parley.WithStore(store),
		parley.WithLogger(logger),
		parley.WithHooks(hooks),
		parley.WithExpiration(cfg.Expiration()),
	}
	if locker != nil {
		opts = append(opts, parley.WithLocker(locker))
	}
	if cfg.Templates != "" {
		stack.Loader = template.New(cfg.Templates, template.WithLogger(logger))
		opts = append(opts, parley.WithTemplates(stack.Loader))
	}
	for _, d := range dialogues {
		opts = append(opts, parley.WithDialogue(d))
	}

	if stack.Engine, err = parley.New(opts...); err != nil {
		_ = stack.Close()
		return nil, err
	}
	return stack, nil
}
