package store

import (
	"context"
	"encoding/json"
	"time"

	"roomchat/internal/constants"
	"roomchat/internal/metrics"
	"roomchat/internal/models"
	"roomchat/pkg/transport/types"

	"github.com/sirupsen/logrus"
)

// PageCache persists the most recent page per room so a fast room switch can
// render without a network round trip.
type PageCache interface {
	SaveHistoryPage(ctx context.Context, roomID string, payload []byte) error
	GetHistoryPage(ctx context.Context, roomID string, ttl time.Duration) ([]byte, bool, error)
	InvalidateHistoryPage(ctx context.Context, roomID string) error
}

// HistoryLoader fetches pages from the backend and keeps the per-room page
// cache in sync. Cache failures degrade to a plain fetch and are never
// surfaced to the caller.
type HistoryLoader struct {
	client   types.Client
	cache    PageCache
	store    *Store
	pageSize int
	ttl      time.Duration
	logger   *logrus.Logger
}

func NewHistoryLoader(client types.Client, cache PageCache, store *Store, cfg models.HistoryConfig, logger *logrus.Logger) *HistoryLoader {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = constants.DefaultHistoryPageSize
	}
	ttl := time.Duration(cfg.CacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = constants.DefaultHistoryCacheTTLSec * time.Second
	}
	return &HistoryLoader{
		client:   client,
		cache:    cache,
		store:    store,
		pageSize: pageSize,
		ttl:      ttl,
		logger:   logger,
	}
}

// LoadInitial populates the store with the most recent page for the room. A
// fresh cached copy short-circuits the fetch entirely; a byte-changed refetch
// replaces the cache.
func (l *HistoryLoader) LoadInitial(ctx context.Context, roomID string) error {
	if page, ok := l.cachedPage(ctx, roomID); ok {
		metrics.IncrementCounter(metrics.CacheHits, nil)
		l.store.ReplaceAll(page)
		return nil
	}
	metrics.IncrementCounter(metrics.CacheMisses, nil)

	start := time.Now()
	page, err := l.client.FetchHistory(ctx, roomID, "", l.pageSize)
	if err != nil {
		return err
	}
	metrics.RecordTimer(metrics.HistoryFetchLatency, time.Since(start), nil)

	l.store.ReplaceAll(page)
	l.savePage(ctx, roomID, page)
	return nil
}

// Refresh refetches the most recent page, bypassing the cache. Used after a
// channel reconnect, when events may have been missed. Local pending and
// failed entries survive the refresh; the fresh page only replaces confirmed
// history.
func (l *HistoryLoader) Refresh(ctx context.Context, roomID string) error {
	page, err := l.client.FetchHistory(ctx, roomID, "", l.pageSize)
	if err != nil {
		return err
	}
	l.store.Reconcile(page)
	l.savePage(ctx, roomID, page)
	return nil
}

// LoadOlder extends the list backwards one page. A no-op once the room's
// beginning has been reached.
func (l *HistoryLoader) LoadOlder(ctx context.Context, roomID string) error {
	if !l.store.HasMore() {
		return nil
	}
	page, err := l.client.FetchHistory(ctx, roomID, l.store.Cursor(), l.pageSize)
	if err != nil {
		return err
	}
	l.store.Prepend(page)
	return nil
}

// Invalidate drops the cached page for the room. Called after every
// successful send, edit, and delete so the next entry refetches.
func (l *HistoryLoader) Invalidate(ctx context.Context, roomID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.InvalidateHistoryPage(ctx, roomID); err != nil {
		l.logger.WithError(err).Warn("Failed to invalidate cached history page")
	}
}

func (l *HistoryLoader) cachedPage(ctx context.Context, roomID string) (*models.MessagePage, bool) {
	if l.cache == nil {
		return nil, false
	}
	payload, ok, err := l.cache.GetHistoryPage(ctx, roomID, l.ttl)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to read cached history page")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var page models.MessagePage
	if err := json.Unmarshal(payload, &page); err != nil {
		l.logger.WithError(err).Warn("Discarding undecodable cached history page")
		l.Invalidate(ctx, roomID)
		return nil, false
	}
	return &page, true
}

func (l *HistoryLoader) savePage(ctx context.Context, roomID string, page *models.MessagePage) {
	if l.cache == nil {
		return
	}
	payload, err := json.Marshal(page)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to encode history page for cache")
		return
	}
	if err := l.cache.SaveHistoryPage(ctx, roomID, payload); err != nil {
		l.logger.WithError(err).Warn("Failed to cache history page")
	}
}
