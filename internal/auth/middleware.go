package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type contextKey string

const staffKey contextKey = "staff"

var (
	ErrUnauthenticated = utils.Unauthorized("authentication required")
	ErrNoProfile       = utils.Forbidden("no staff profile for this account")
	ErrRoleNotAllowed  = utils.Forbidden("role not allowed")
)

// Guard authenticates staff requests and enforces role lists.
type Guard struct {
	Verifier Verifier
	Profiles ProfileStore
	Logger   *logger.Logger
}

func NewGuard(verifier Verifier, profiles ProfileStore, log *logger.Logger) *Guard {
	return &Guard{Verifier: verifier, Profiles: profiles, Logger: log}
}

// Authenticate resolves the caller's staff profile. No session is 401, a
// session without profile or with a role outside roles is 403. An empty
// roles list admits any staff member.
func (g *Guard) Authenticate(r *http.Request, roles ...string) (*models.StaffProfile, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if g.Verifier == nil {
		return nil, ErrUnauthenticated
	}

	subject, err := g.Verifier.Verify(r.Context(), raw)
	if err != nil {
		g.Logger.LogSecurity("TOKEN_REJECTED", err.Error())
		return nil, ErrUnauthenticated
	}

	profile, err := g.Profiles.StaffProfile(r.Context(), subject)
	if err != nil {
		return nil, utils.Internal("failed to load staff profile", err)
	}
	if profile == nil {
		g.Logger.LogSecurity("NO_PROFILE", fmt.Sprintf("subject=%s", subject))
		return nil, ErrNoProfile
	}
	if !HasRole(profile, roles...) {
		g.Logger.LogSecurity("ROLE_DENIED", fmt.Sprintf("subject=%s role=%s", subject, profile.Role))
		return nil, ErrRoleNotAllowed
	}
	return profile, nil
}

// Require is chi middleware admitting only the listed roles.
func (g *Guard) Require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := g.Authenticate(r, roles...)
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithStaff(r.Context(), profile)))
		})
	}
}

func HasRole(profile *models.StaffProfile, roles ...string) bool {
	if profile == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if profile.Role == role {
			return true
		}
	}
	return false
}

func WithStaff(ctx context.Context, profile *models.StaffProfile) context.Context {
	return context.WithValue(ctx, staffKey, profile)
}

// Staff returns the authenticated staff profile, if any.
func Staff(ctx context.Context) (*models.StaffProfile, bool) {
	profile, ok := ctx.Value(staffKey).(*models.StaffProfile)
	return profile, ok && profile != nil
}

// IsUnauthenticated reports whether err means no usable session.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
