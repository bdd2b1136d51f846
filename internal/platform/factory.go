package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/silt/pkg/adapters/memory"
	"github.com/aretw0/silt/pkg/adapters/mongo"
	"github.com/aretw0/silt/pkg/conn"
)

// Connect builds a connection manager for the given URI and runs its
// setup procedure. The URI is adapter-specific (a mongodb:// URI for
// 'mongo', ignored by 'memory').
func Connect(ctx context.Context, uri string, opts ...Option) (*conn.Manager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	dialer := o.dialer
	if dialer == nil {
		switch o.adapter {
		case "mongo", "mongodb":
			dialer = mongo.NewDialer(uri)
		case "memory":
			dialer = memory.NewDialer()
		default:
			return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
		}
	}

	mgr := conn.NewManager(conn.Config{
		Dialer:     dialer,
		Database:   o.database,
		MaxRetries: o.maxRetries,
		RetryDelay: o.retryDelay,
		Logger:     o.logger,
	})
	if err := mgr.Setup(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
