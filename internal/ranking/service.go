package ranking

import (
	"context"
	"time"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// PodiumSize is the number of entries shown on the home page podium.
const PodiumSize = 3

// Service loads members and catches and hands them to the Engine.
type Service struct {
	members datastore.MemberRepository
	catches datastore.CatchRepository
	engine  *Engine
	log     logger.Logger
}

// NewService creates a ranking service.
func NewService(members datastore.MemberRepository, catches datastore.CatchRepository, engine *Engine) *Service {
	return &Service{
		members: members,
		catches: catches,
		engine:  engine,
		log:     logger.Global().Module("ranking"),
	}
}

// Ranking returns the leaderboard truncated to topN entries (topN <= 0 keeps all).
func (s *Service) Ranking(ctx context.Context, topN int) ([]Entry, error) {
	start := time.Now()

	members, err := s.members.ListAll(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("ranking").
			Category(errors.CategoryDatabase).
			Context("operation", "load-members").
			Build()
	}
	catches, err := s.catches.ListForScoring(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("ranking").
			Category(errors.CategoryDatabase).
			Context("operation", "load-catches").
			Build()
	}

	entries := s.engine.Compute(members, catches, topN)
	s.log.Debug("ranking computed",
		logger.Int("members", len(members)),
		logger.Int("catches", len(catches)),
		logger.Int("top_n", topN),
		logger.Duration("duration", time.Since(start)))
	return entries, nil
}

// Podium returns the top three entries.
func (s *Service) Podium(ctx context.Context) ([]Entry, error) {
	return s.Ranking(ctx, PodiumSize)
}

// MemberScore returns the full-leaderboard entry of one member.
func (s *Service) MemberScore(ctx context.Context, memberID uint) (Entry, error) {
	entries, err := s.Ranking(ctx, 0)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Member.ID == memberID {
			return e, nil
		}
	}
	return Entry{}, datastore.ErrMemberNotFound
}
