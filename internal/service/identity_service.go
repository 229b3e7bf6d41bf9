package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/models"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

type userStore interface {
	Get(ctx context.Context, userID string) (*models.User, error)
}

type membershipStore interface {
	Get(ctx context.Context, userID, leagueID string) (*models.Membership, error)
}

type roleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdentityService turns edge-injected identity headers into a Principal.
// Resolutions are cached with a short TTL so role changes take effect within
// a bounded window.
type IdentityService struct {
	users       userStore
	memberships membershipStore
	cache       roleCache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewIdentityService constructs an identity service. cache may be nil.
func NewIdentityService(users userStore, memberships membershipStore, cache roleCache, ttl time.Duration, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 || ttl > 60*time.Second {
		ttl = 60 * time.Second
	}
	return &IdentityService{
		users:       users,
		memberships: memberships,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// Resolve builds the caller's principal for the given league. An unknown
// user or a user without a membership resolves to Viewer rather than
// failing; route guards decide what Viewers may do. leagueID may be empty
// for league-agnostic routes.
func (s *IdentityService) Resolve(ctx context.Context, userID, email, leagueID string) (*models.Principal, error) {
	if userID == "" || email == "" {
		return nil, appErrors.ErrUnauthorized
	}

	key := roleCacheKey(userID, leagueID)
	if s.cache != nil {
		var cached models.Principal
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			cached.Email = email
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("role cache read failed", "error", err)
		}
	}

	principal := models.Principal{
		UserID:   userID,
		Email:    email,
		LeagueID: leagueID,
		Role:     models.RoleViewer,
	}

	user, err := s.users.Get(ctx, userID)
	switch {
	case err == nil && user.GlobalAdmin:
		principal.Role = models.RoleGlobalAdmin
	case err != nil && !errors.Is(err, tablestore.ErrNotFound):
		return nil, storeError(err)
	}

	if principal.Role != models.RoleGlobalAdmin && leagueID != "" {
		membership, err := s.memberships.Get(ctx, userID, leagueID)
		switch {
		case err == nil:
			principal.Role = membership.Role
			principal.Division = membership.Division
			principal.TeamID = membership.TeamID
		case !errors.Is(err, tablestore.ErrNotFound):
			return nil, storeError(err)
		}
	}

	if s.cache != nil {
		// Email is per-request header state, not part of the cached role.
		toCache := principal
		toCache.Email = ""
		if err := s.cache.Set(ctx, key, toCache, s.ttl); err != nil {
			s.logger.Sugar().Warnw("role cache write failed", "error", err)
		}
	}
	return &principal, nil
}

// Invalidate drops the cached resolution for one (user, league) pair; called
// after membership writes so staleness does not last the whole TTL.
func (s *IdentityService) Invalidate(ctx context.Context, userID, leagueID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, roleCacheKey(userID, leagueID)); err != nil {
		s.logger.Sugar().Warnw("role cache invalidate failed", "error", err)
	}
}

func roleCacheKey(userID, leagueID string) string {
	return fmt.Sprintf("role:%s:%s", userID, leagueID)
}
