package service

import (
	"context"
	"strings"

	"github.com/revenue-reconciler/internal/domain/synclog"
)

type SyncLogServiceImpl struct {
	syncLogRepo synclog.Repository
}

func NewSyncLogService(syncLogRepo synclog.Repository) SyncLogService {
	return &SyncLogServiceImpl{syncLogRepo: syncLogRepo}
}

// List returns runs newest first. An empty provider lists every provider.
func (s *SyncLogServiceImpl) List(ctx context.Context, provider string, page, perPage int) ([]*synclog.Entry, int64, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))

	entries, err := s.syncLogRepo.List(ctx, provider, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.syncLogRepo.Count(ctx, provider)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
