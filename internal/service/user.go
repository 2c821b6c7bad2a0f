package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"userhub/internal/cache"
	"userhub/internal/model"
	"userhub/internal/password"
	"userhub/internal/queue"
	"userhub/internal/repository"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultCacheTimeout = 1 * time.Second
)

var nicknameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// UserService implements the six user operations. It is the only
// component with cross-cutting invariants: the repository is the
// source of truth, the cache is a disposable copy, and every write
// invalidates cache entries only after the store commit.
type UserService struct {
	repo      repository.UserRepository
	userCache cache.UserCache
	hasher    *password.Hasher
	publisher queue.Publisher

	storeTimeout time.Duration
	cacheTimeout time.Duration
}

// UserServiceConfig bounds collaborator calls. Zero values fall back
// to defaults.
type UserServiceConfig struct {
	StoreTimeout time.Duration
	CacheTimeout time.Duration
}

// NewUserService wires the orchestrator. publisher may be nil when no
// observability sink is configured; events are then skipped.
func NewUserService(repo repository.UserRepository, userCache cache.UserCache, hasher *password.Hasher, publisher queue.Publisher, cfg UserServiceConfig) *UserService {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = defaultCacheTimeout
	}
	return &UserService{
		repo:         repo,
		userCache:    userCache,
		hasher:       hasher,
		publisher:    publisher,
		storeTimeout: cfg.StoreTimeout,
		cacheTimeout: cfg.CacheTimeout,
	}
}

// Get returns the user for nickname, read-through the cache: cache
// hit wins, a miss (or any cache failure) falls back to the
// repository and repopulates the cache. Hit and miss paths return the
// same data.
func (s *UserService) Get(ctx context.Context, nickname string) (*model.User, error) {
	nickname = normalizeNickname(nickname)

	if user := s.cacheGet(ctx, nickname); user != nil {
		return user, nil
	}

	user, err := s.repoGetByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}

	s.cachePut(ctx, user)
	return user, nil
}

// GetByID retrieves a user by primary key. Used by authenticated
// endpoints where the caller is identified by id, not nickname;
// bypasses the cache since the cache is keyed by nickname.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.GetByID(rctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return user, nil
}

// GetCollection returns all users. Collection reads bypass the
// per-item cache and go straight to the repository.
func (s *UserService) GetCollection(ctx context.Context) ([]model.User, error) {
	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	users, err := s.repo.GetAll(rctx)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return users, nil
}

// Create validates the request, hashes the password and inserts the
// user. The store assigns id and member_since and zeroes the
// counters; a nickname collision propagates as ErrNicknameTaken.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if err := requireFields(map[string]string{
		"name":     req.Name,
		"nickname": req.Nickname,
		"password": req.Password,
	}); err != nil {
		return nil, err
	}

	nickname, err := SanitizeNickname(req.Nickname)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:          strings.TrimSpace(req.Name),
		Nickname:      nickname,
		Password:      hashed,
		ProfileImgURL: req.ProfileImgURL,
	}
	if req.About != "" {
		about := req.About
		user.About = &about
	}

	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Create(rctx, user); err != nil {
		return nil, s.mapStoreErr(err)
	}

	// A stale entry could survive under this nickname from before a
	// delete; drop it now that the insert committed.
	s.cacheInvalidate(ctx, user.Nickname)
	s.publish(ctx, queue.NewUserCreatedEvent(user.ID, user.Nickname))

	return user, nil
}

// Update applies a partial update to the user with the given id.
// Empty fields keep the stored value. A password change requires the
// current password to verify first; a failed verification leaves the
// stored hash untouched. Cache keys are invalidated only after the
// store commit, old nickname first, new nickname too when it changed.
func (s *UserService) Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	user, err := s.repo.GetByID(rctx, id)
	cancel()
	if err != nil {
		return nil, s.mapStoreErr(err)
	}

	oldNickname := user.Nickname

	if req.NewPassword != "" {
		if !s.hasher.Verify(req.CurrentPassword, user.Password) {
			return nil, model.ErrInvalidCredentials
		}
		hashed, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.About != "" {
		about := req.About
		user.About = &about
	}
	if req.Nickname != "" {
		nickname, err := SanitizeNickname(req.Nickname)
		if err != nil {
			return nil, err
		}
		if nickname != oldNickname {
			// Pre-check for the common case; the unique constraint
			// still decides concurrent claims.
			ectx, cancel := context.WithTimeout(ctx, s.storeTimeout)
			taken, err := s.repo.ExistsByNickname(ectx, nickname)
			cancel()
			if err != nil {
				return nil, s.mapStoreErr(err)
			}
			if taken {
				return nil, model.ErrNicknameTaken
			}
		}
		user.Nickname = nickname
	}
	if req.ProfileImgURL != nil {
		user.ProfileImgURL = req.ProfileImgURL
	}

	uctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Update(uctx, user); err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.cacheInvalidate(ctx, oldNickname)
	if user.Nickname != oldNickname {
		s.cacheInvalidate(ctx, user.Nickname)
	}
	s.publish(ctx, queue.NewUserUpdatedEvent(user.ID, user.Nickname))

	return user, nil
}

// Delete removes the user for nickname and drops its cache entry
// after the store commit.
func (s *UserService) Delete(ctx context.Context, nickname string) (*model.DeleteUserResponse, error) {
	nickname = normalizeNickname(nickname)

	// Two round trips: the lookup gives us the id for the audit
	// event, the delete stays a single statement.
	user, err := s.repoGetByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.Delete(rctx, nickname); err != nil {
		return nil, s.mapStoreErr(err)
	}

	s.cacheInvalidate(ctx, nickname)
	s.publish(ctx, queue.NewUserDeletedEvent(user.ID, nickname))

	return &model.DeleteUserResponse{
		Status:  model.DeleteStatusSuccess,
		Message: "User successfully deleted",
	}, nil
}

// Login verifies credentials against the repository. The cache is
// deliberately bypassed: password hashes are only ever trusted from
// the source of truth.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	nickname := normalizeNickname(req.Nickname)

	user, err := s.repoGetByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.publish(ctx, queue.NewUserLoginEvent(0, nickname, queue.OutcomeFailure))
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.Password) {
		s.publish(ctx, queue.NewUserLoginEvent(user.ID, nickname, queue.OutcomeFailure))
		return nil, model.ErrInvalidCredentials
	}

	s.publish(ctx, queue.NewUserLoginEvent(user.ID, nickname, queue.OutcomeSuccess))
	return user, nil
}

// repoGetByNickname bounds the repository lookup with the store timeout.
func (s *UserService) repoGetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	rctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.GetByNickname(rctx, nickname)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return user, nil
}

// cacheGet returns a cached user or nil. Every cache failure,
// including a timeout, degrades to a miss and is never surfaced.
func (s *UserService) cacheGet(ctx context.Context, nickname string) *model.User {
	if s.userCache == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	user, err := s.userCache.Get(cctx, nickname)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("[UserService] cache get degraded to miss: nickname=%s err=%v", nickname, err)
		}
		return nil
	}
	return user
}

// cachePut stores a copy best-effort.
func (s *UserService) cachePut(ctx context.Context, user *model.User) {
	if s.userCache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.userCache.Put(cctx, user); err != nil {
		log.Printf("[UserService] cache put skipped: nickname=%s err=%v", user.Nickname, err)
	}
}

// cacheInvalidate drops entries best-effort. A failed invalidation is
// bounded by the entry TTL.
func (s *UserService) cacheInvalidate(ctx context.Context, nicknames ...string) {
	if s.userCache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.userCache.Invalidate(cctx, nicknames...); err != nil {
		log.Printf("[UserService] cache invalidate failed: keys=%v err=%v", nicknames, err)
	}
}

// publish emits an operation-outcome event. Sink failures are logged
// and never affect the operation.
func (s *UserService) publish(ctx context.Context, event queue.IdentityEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamIdentity, event); err != nil {
		log.Printf("[UserService] event publish failed: type=%s err=%v", event.Type, err)
	}
}

// mapStoreErr translates collaborator timeouts into
// ErrStoreUnavailable. Domain errors pass through unchanged so
// callers can distinguish them.
func (s *UserService) mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return err
}

// SanitizeNickname normalizes and validates a nickname: lowercased,
// spaces stripped, at least 3 characters, restricted to a-z, 0-9,
// hyphens and underscores.
func SanitizeNickname(nickname string) (string, error) {
	n := normalizeNickname(nickname)

	if len(n) < 3 {
		return "", fmt.Errorf("%w: nickname must be at least 3 characters long", model.ErrValidation)
	}
	if !nicknameRe.MatchString(n) {
		return "", fmt.Errorf("%w: nickname can only contain letters (a-z), digits, hyphens (-), and underscores (_)", model.ErrValidation)
	}

	return n, nil
}

// normalizeNickname applies the lookup normalization without
// validation, so reads accept what writes stored.
func normalizeNickname(nickname string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(nickname), " ", ""))
}

// requireFields rejects the request when any required field is empty.
func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"name", "nickname", "password"} {
		if value, ok := fields[name]; ok && strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or empty required fields: %s", model.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
