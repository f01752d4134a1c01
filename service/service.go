// Package service holds the business rules of the tracker: who may see or
// change what, input validation, and token checks. Persistence is delegated
// to a store.Store.
package service

import (
	"time"

	"bugtrack/auth"
	"bugtrack/store"

	"go.uber.org/zap"
)

type Service struct {
	store store.Store
	auth  auth.Config
	log   *zap.Logger
	now   func() time.Time
}

func New(st store.Store, authCfg auth.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: st,
		auth:  authCfg,
		log:   log,
		now:   time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
