package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockroom/internal/domain/settings"
	"stockroom/pkg/logger"
)

// SettingsReloader is the part of settings.Store the listener drives.
type SettingsReloader interface {
	Current() *settings.Snapshot
	Reload(ctx context.Context) (*settings.Snapshot, error)
}

// SettingsListener reloads the settings store when another process
// announces a newer version via PostgreSQL NOTIFY.
type SettingsListener struct {
	pool    *pgxpool.Pool
	channel string
	store   SettingsReloader

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewSettingsListener creates a listener on channel.
func NewSettingsListener(pool *pgxpool.Pool, channel string, store SettingsReloader) *SettingsListener {
	return &SettingsListener{pool: pool, channel: channel, store: store}
}

// Start begins listening in the background.
func (l *SettingsListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "settings listener started", "channel", l.channel)
}

// Stop ends the listener and waits for it.
func (l *SettingsListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "settings listener stopped")
}

func (l *SettingsListener) listenLoop() {
	defer l.wg.Done()

	for l.ctx.Err() == nil {
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+l.channel); err != nil {
			logger.Error(l.ctx, "LISTEN failed", "channel", l.channel, "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// Changes made while no connection was listening are picked up here.
		l.reload(0)
		l.wait(conn)
		conn.Release()
	}
}

func (l *SettingsListener) wait(conn *pgxpool.Conn) {
	for l.ctx.Err() == nil {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()
		if err != nil {
			if l.ctx.Err() != nil || ctx.Err() != nil {
				// Shutdown or idle timeout.
				continue
			}
			logger.Warn(l.ctx, "settings listener connection lost", "error", err)
			return
		}

		version, _ := strconv.ParseInt(n.Payload, 10, 64)
		l.reload(version)
	}
}

// reload refreshes the store unless it already holds version or newer.
// version 0 always reloads.
func (l *SettingsListener) reload(version int64) {
	if version > 0 && l.store.Current().Version >= version {
		return
	}
	snap, err := l.store.Reload(l.ctx)
	if err != nil {
		logger.Error(l.ctx, "reload settings", "error", err)
		return
	}
	logger.Debug(l.ctx, "settings reloaded", "version", snap.Version)
}

func (l *SettingsListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
