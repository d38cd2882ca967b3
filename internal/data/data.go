package data

import (
	"context"

	"github.com/google/wire"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/snapshot"
	"github.com/yola1107/twisted/internal/store"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewSnapshotStore, store.NewStores)

// NewSnapshotStore opens the configured snapshot backend.
func NewSnapshotStore(c *conf.Data) (*snapshot.Store, func(), error) {
	sc := c.Snapshot
	ctx, cancel := context.WithTimeout(context.Background(), sc.Timeout.Std())
	defer cancel()

	opts := snapshot.Options{Driver: sc.Driver, DSN: sc.DSN}
	if sc.Redis != nil {
		opts.RedisAddr, opts.RedisPassword, opts.RedisDB = sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB
	}
	repo, err := snapshot.Open(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	st := snapshot.NewStore(repo, sc.Timeout.Std())
	log.Infof("snapshot store ready. driver=%s", sc.Driver)

	cleanup := func() {
		log.Info("closing the data resources")
		if err := st.Close(); err != nil {
			log.Errorf("snapshot store close: %v", err)
		}
	}
	return st, cleanup, nil
}
