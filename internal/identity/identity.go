package identity

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/model"
)

// Service supplies the current user's profile to the marketplace core.
// The dashboard is a single-session application: one active profile,
// persisted under the store's profile key, with a safe local fallback
// when nothing has been stored yet.
type Service struct {
	store    store.Store
	logger   *zap.Logger
	fallback model.UserProfile

	mu      sync.RWMutex
	current *model.UserProfile
}

// ProfilePatch carries the partial fields of an UpdateProfile call.
// Nil fields are left unchanged.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Location *string `json:"location,omitempty"`
}

// DefaultProfile is the local fallback identity used when no profile
// has ever been saved. It mirrors the demo account the dashboard ships
// with.
func DefaultProfile() model.UserProfile {
	return model.UserProfile{
		ID:         "user-demo-01",
		Name:       "Wanjiku Kamau",
		Role:       model.RoleBuyer,
		Location:   "Nakuru",
		IsVerified: true,
	}
}

// New creates the identity service, hydrating the cached profile from
// the store.
func New(ctx context.Context, st store.Store, logger *zap.Logger) (*Service, error) {
	s := &Service{
		store:    st,
		logger:   logger,
		fallback: DefaultProfile(),
	}

	stored, err := st.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: hydrate profile: %w", err)
	}
	s.current = stored
	return s, nil
}

// Current returns the active user profile. Never errors into an
// anonymous state: absence of a stored profile yields the fallback.
func (s *Service) Current(ctx context.Context) model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		return *s.current
	}
	return s.fallback
}

// UpdateProfile merges the non-nil patch fields into the current
// profile and persists the result. The profile id is immutable.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.fallback
	if s.current != nil {
		profile = *s.current
	}

	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.Role != nil {
		role := model.Role(*patch.Role)
		if role != model.RoleBuyer && role != model.RoleProducer {
			return model.UserProfile{}, fmt.Errorf("%w: role must be 'buyer' or 'producer'", model.ErrValidation)
		}
		profile.Role = role
	}
	if patch.Location != nil {
		profile.Location = *patch.Location
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("identity: save profile: %w", err)
	}

	s.current = &profile
	s.logger.Info("identity.profile_updated",
		zap.String("user_id", profile.ID),
		zap.String("role", string(profile.Role)))
	return profile, nil
}
