// Package auth implements the HTTP adapter for the /api/auth endpoints.
package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/middleware"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// Guards are the middlewares the handler attaches per route.
type Guards struct {
	// Auth rejects requests without an active session.
	Auth echo.MiddlewareFunc
	// Optional attaches a session when present.
	Optional echo.MiddlewareFunc
	// Strict is the tighter rate limit for credential endpoints.
	Strict echo.MiddlewareFunc
}

// Handler handles requests at /api/auth/*.
type Handler struct {
	svc in.Authority
	log *log.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(svc in.Authority, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// Register mounts every auth route on g.
func (h *Handler) Register(g *echo.Group, guards Guards) {
	strict := orPass(guards.Strict)
	auth := guards.Auth
	admin := []echo.MiddlewareFunc{auth, middleware.RequireAdmin(h.log)}

	g.POST("/sign-up/email", h.signUp, strict)
	g.POST("/sign-in/email", h.signIn, strict)
	g.POST("/sign-out", h.signOut)
	g.GET("/get-session", h.getSession, orPass(guards.Optional))
	g.GET("/ok", h.ok)

	g.POST("/update-user", h.updateUser, auth)
	g.POST("/change-password", h.changePassword, auth, strict)
	g.GET("/list-sessions", h.listSessions, auth)
	g.POST("/revoke-session", h.revokeSession, auth)
	g.POST("/revoke-other-sessions", h.revokeOtherSessions, auth)

	g.POST("/send-verification-email", h.sendVerificationEmail, strict)
	g.GET("/verify-email", h.verifyEmail)
	g.POST("/request-password-reset", h.requestPasswordReset, strict)
	g.POST("/reset-password", h.resetPassword, strict)

	g.GET("/admin/list-users", h.listUsers, admin...)
	g.POST("/admin/create-user", h.createUser, admin...)
	g.POST("/admin/update-user", h.adminUpdateUser, admin...)
	g.POST("/admin/set-role", h.setRole, admin...)
	g.POST("/admin/ban-user", h.banUser, admin...)
	g.POST("/admin/unban-user", h.unbanUser, admin...)
	g.POST("/admin/remove-user", h.removeUser, admin...)
	g.POST("/admin/revoke-user-sessions", h.revokeUserSessions, admin...)
	g.POST("/admin/list-user-sessions", h.listUserSessions, admin...)
	g.POST("/admin/set-user-password", h.setUserPassword, admin...)
	g.POST("/admin/impersonate-user", h.impersonateUser, admin...)
	// The impersonated identity is not an admin, so only a session is required.
	g.POST("/admin/stop-impersonating", h.stopImpersonating, auth)

	g.Any("/*", notFound)
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw != nil {
		return mw
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}

func notFound(c echo.Context) error {
	return httputil.JSONError(c, http.StatusNotFound, "Not found")
}

func requestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// issue stores the new session token in the cookie and returns it in the
// body for bearer clients.
func (h *Handler) issue(c echo.Context, identity *domain.Identity) error {
	if err := middleware.SetToken(c, identity.Session.Token, identity.Session.ExpiresAt); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.AuthResponse{Token: identity.Session.Token, User: identity.User})
}

func ack(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.StatusResponse{Status: true})
}

func (h *Handler) signUp(c echo.Context) error {
	var req dto.SignUpRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	identity, err := h.svc.SignUp(c.Request().Context(), in.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
	}, requestMeta(c))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return h.issue(c, identity)
}

func (h *Handler) signIn(c echo.Context) error {
	var req dto.SignInRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	identity, err := h.svc.SignIn(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return h.issue(c, identity)
}

func (h *Handler) signOut(c echo.Context) error {
	if token := middleware.TokenFrom(c); token != "" {
		if err := h.svc.SignOut(c.Request().Context(), token); err != nil {
			return err
		}
	}
	if err := middleware.ClearToken(c); err != nil {
		h.log.Warn("failed to clear session cookie", "err", err)
	}
	return ack(c)
}

// getSession returns the identity, or null without a session.
func (h *Handler) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.IdentityFrom(c))
}

func (h *Handler) ok(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}

func (h *Handler) updateUser(c echo.Context) error {
	var req dto.UpdateUserRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), middleware.IdentityFrom(c), req.Name, req.Image)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) changePassword(c echo.Context) error {
	var req dto.ChangePasswordRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	err := h.svc.ChangePassword(c.Request().Context(), middleware.IdentityFrom(c),
		req.CurrentPassword, req.NewPassword, req.RevokeOtherSessions)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) listSessions(c echo.Context) error {
	sessions, err := h.svc.ListSessions(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *Handler) revokeSession(c echo.Context) error {
	var req dto.TokenRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.RevokeSession(c.Request().Context(), middleware.IdentityFrom(c), req.Token); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) revokeOtherSessions(c echo.Context) error {
	if err := h.svc.RevokeOtherSessions(c.Request().Context(), middleware.IdentityFrom(c)); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) sendVerificationEmail(c echo.Context) error {
	var req dto.EmailRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.SendVerificationEmail(c.Request().Context(), req.Email); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) verifyEmail(c echo.Context) error {
	user, err := h.svc.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) requestPasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email, req.RedirectTo); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) resetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) listUsers(c echo.Context) error {
	q := domain.ListUsersQuery{
		SearchField:    c.QueryParam("searchField"),
		SearchValue:    c.QueryParam("searchValue"),
		SearchOperator: c.QueryParam("searchOperator"),
		FilterField:    c.QueryParam("filterField"),
		FilterValue:    c.QueryParam("filterValue"),
		SortBy:         c.QueryParam("sortBy"),
		SortDirection:  c.QueryParam("sortDirection"),
	}
	var err error
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return httputil.WriteError(c, err)
	}
	if q.Offset, err = intParam(c, "offset"); err != nil {
		return httputil.WriteError(c, err)
	}

	page, err := h.svc.ListUsers(c.Request().Context(), middleware.IdentityFrom(c), q)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation(name + " must be an integer")
	}
	return n, nil
}

func parseRole(s string) (domain.Role, error) {
	role, err := domain.ParseRole(s)
	if err != nil {
		return "", domain.Validation("role must be either 'user' or 'admin'")
	}
	return role, nil
}

func (h *Handler) createUser(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	user, err := h.svc.CreateUser(c.Request().Context(), middleware.IdentityFrom(c), in.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) adminUpdateUser(c echo.Context) error {
	var req dto.AdminUpdateUserRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	patch := domain.UserPatch{Name: req.Data.Name, Email: req.Data.Email, Image: req.Data.Image}
	if req.Data.Role != nil {
		role, err := parseRole(*req.Data.Role)
		if err != nil {
			return httputil.WriteError(c, err)
		}
		patch.Role = &role
	}
	user, err := h.svc.AdminUpdateUser(c.Request().Context(), middleware.IdentityFrom(c), req.UserID, patch)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) setRole(c echo.Context) error {
	var req dto.SetRoleRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if req.Role == "" {
		return httputil.WriteError(c, domain.Validation("role must be either 'user' or 'admin'"))
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	user, err := h.svc.SetRole(c.Request().Context(), middleware.IdentityFrom(c), req.UserID, role)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

// maxBanExpiresIn caps ban durations at 100 years, in seconds.
const maxBanExpiresIn = 100 * 365 * 24 * 60 * 60

func (h *Handler) banUser(c echo.Context) error {
	var req dto.BanUserRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if req.BanExpiresIn < 0 || req.BanExpiresIn > maxBanExpiresIn {
		return httputil.WriteError(c, domain.Validation("banExpiresIn out of range"))
	}
	expiresIn := time.Duration(req.BanExpiresIn) * time.Second
	user, err := h.svc.BanUser(c.Request().Context(), middleware.IdentityFrom(c), req.UserID, req.BanReason, expiresIn)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) unbanUser(c echo.Context) error {
	var req dto.UserIDRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	user, err := h.svc.UnbanUser(c.Request().Context(), middleware.IdentityFrom(c), req.UserID)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponse{User: *user})
}

func (h *Handler) removeUser(c echo.Context) error {
	var req dto.UserIDRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.RemoveUser(c.Request().Context(), middleware.IdentityFrom(c), req.UserID); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) revokeUserSessions(c echo.Context) error {
	var req dto.UserIDRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.RevokeUserSessions(c.Request().Context(), middleware.IdentityFrom(c), req.UserID); err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

func (h *Handler) listUserSessions(c echo.Context) error {
	var req dto.UserIDRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	sessions, err := h.svc.ListUserSessions(c.Request().Context(), middleware.IdentityFrom(c), req.UserID)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SessionsResponse{Sessions: sessions})
}

func (h *Handler) setUserPassword(c echo.Context) error {
	var req dto.SetUserPasswordRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	err := h.svc.SetUserPassword(c.Request().Context(), middleware.IdentityFrom(c), req.UserID, req.NewPassword)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return ack(c)
}

// impersonateUser replaces the caller's cookie with the impersonation
// session.
func (h *Handler) impersonateUser(c echo.Context) error {
	var req dto.UserIDRequest
	if err := httputil.DecodeJSON(c, &req); err != nil {
		return httputil.WriteError(c, err)
	}
	identity, err := h.svc.ImpersonateUser(c.Request().Context(), middleware.IdentityFrom(c), req.UserID, requestMeta(c))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return h.issue(c, identity)
}

func (h *Handler) stopImpersonating(c echo.Context) error {
	if err := h.svc.StopImpersonating(c.Request().Context(), middleware.IdentityFrom(c)); err != nil {
		return httputil.WriteError(c, err)
	}
	if err := middleware.ClearToken(c); err != nil {
		h.log.Warn("failed to clear session cookie", "err", err)
	}
	return ack(c)
}
