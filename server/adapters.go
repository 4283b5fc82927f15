package server

import (
	"context"
	"fmt"

	"vault/config"
	"vault/internal/db"
	"vault/internal/logs"
	"vault/internal/memstore"
	"vault/internal/notify"
	"vault/internal/repo"
	"vault/internal/store"
)

// openStore picks gorm when a driver is set, the memory store otherwise.
// closer releases the connections.
func openStore(cfg *config.Config) (s store.Store, closer func() error, err error) {
	d, err := db.Open(db.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if d == nil {
		logs.Logger.Warn("database.driver is empty: using in-memory store, data is lost on restart")
		return memstore.New(), func() error { return nil }, nil
	}
	if err := db.Migrate(d); err != nil {
		return nil, nil, err
	}
	sqlDB, err := d.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("db handle: %w", err)
	}
	logs.Logger.Infof("database: %s", cfg.Database.Driver)
	return repo.New(d), sqlDB.Close, nil
}

// openPublisher connects Redis pub/sub for live notification delivery.
// Without redis.enabled notifications are only stored.
func openPublisher(ctx context.Context, cfg *config.Config) (*notify.RedisPublisher, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	p := notify.NewRedisPublisher(notify.RedisOptions{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err := p.Ping(ctx); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Address, err)
	}
	return p, nil
}
