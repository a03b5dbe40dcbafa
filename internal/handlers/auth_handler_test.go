package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/services"
	"github.com/Karol96S/budgetapp/internal/token"
)

func newAuthRouter(userService services.UserServicer, audit *mockAuditService) *gin.Engine {
	h := NewAuthHandler(userService, audit)

	router := gin.New()
	auth := router.Group("/api/v1/auth")
	auth.POST("/register", h.Register)
	auth.GET("/activate/:token", h.Activate)
	auth.POST("/login", h.Login)
	auth.POST("/remember", h.RememberedLogin)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/password-reset", h.RequestPasswordReset)
	auth.GET("/password-reset/:token", h.ValidatePasswordReset)
	auth.POST("/password-reset/:token", h.ResetPassword)

	protected := router.Group("/api/v1", setAuthContext(1))
	protected.GET("/profile", h.GetProfile)
	protected.PUT("/profile", h.UpdateProfile)
	protected.POST("/profile/username", h.ChangeUsername)
	protected.POST("/profile/password", h.ChangePassword)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRegisterHandler(t *testing.T) {
	activation, err := token.Generate()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	userSvc := &mockUserService{
		registerFn: func(input services.RegisterInput) (*models.User, token.Token, error) {
			if input.Username != "bob" || input.Email != "bob@example.com" {
				t.Errorf("unexpected register input: %+v", input)
			}
			user := &models.User{Username: input.Username, Email: input.Email}
			user.ID = 7
			return user, activation, nil
		},
	}
	audit := &mockAuditService{}
	router := newAuthRouter(userSvc, audit)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username":        "bob",
		"email":           "bob@example.com",
		"password":        "abc123",
		"repeat_password": "abc123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if userSvc.sentEmails != 1 {
		t.Errorf("expected 1 activation email, sent %d", userSvc.sentEmails)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "user.register" {
		t.Errorf("expected user.register audit action, got %v", audit.actions)
	}

	body := decodeBody(t, w)
	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing user in response: %v", body)
	}
	if user["is_active"] != false {
		t.Error("new account should not be active")
	}
	// The raw activation token must never appear in the response.
	if bytes.Contains(w.Body.Bytes(), []byte(activation.String())) {
		t.Error("response leaks the activation token")
	}
}

func TestRegisterHandlerValidationFailure(t *testing.T) {
	userSvc := &mockUserService{
		registerFn: func(services.RegisterInput) (*models.User, token.Token, error) {
			ve := apperrors.NewValidationError()
			ve.Add("username", "Username must be 3 to 20 characters long")
			return nil, token.Token{}, ve
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username":        "x",
		"email":           "bob@example.com",
		"password":        "abc123",
		"repeat_password": "abc123",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %v", errObj["code"])
	}
	fields := errObj["fields"].(map[string]interface{})
	if _, ok := fields["username"]; !ok {
		t.Errorf("expected username field error, got %v", fields)
	}
}

func TestRegisterHandlerMalformedBody(t *testing.T) {
	router := newAuthRouter(&mockUserService{}, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "bob",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
}

func TestActivateHandlerAlwaysSameResponse(t *testing.T) {
	router := newAuthRouter(&mockUserService{}, &mockAuditService{})

	valid := doJSON(t, router, http.MethodGet, "/api/v1/auth/activate/sometoken", nil)
	garbage := doJSON(t, router, http.MethodGet, "/api/v1/auth/activate/zzz", nil)

	if valid.Code != http.StatusOK || garbage.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", valid.Code, garbage.Code)
	}
	if valid.Body.String() != garbage.Body.String() {
		t.Error("activation responses should be indistinguishable")
	}
}

func TestLoginHandler(t *testing.T) {
	user := &models.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	user.ID = 3

	userSvc := &mockUserService{
		authenticateFn: func(email, password string) (*models.User, error) {
			return user, nil
		},
	}
	audit := &mockAuditService{}
	router := newAuthRouter(userSvc, audit)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["token"] == nil || body["token"] == "" {
		t.Error("expected access token in response")
	}
	if body["refresh_token"] == nil || body["refresh_token"] == "" {
		t.Error("expected refresh token in response")
	}
	if len(userSvc.storedDigests) != 1 {
		t.Errorf("expected refresh digest to be stored once, got %d", len(userSvc.storedDigests))
	}
	if w.Result().Cookies() != nil {
		for _, cookie := range w.Result().Cookies() {
			if cookie.Name == "remember_me" {
				t.Error("remember cookie should not be set without remember=true")
			}
		}
	}
}

func TestLoginHandlerRememberSetsCookie(t *testing.T) {
	user := &models.User{Email: "alice@example.com", IsActive: true}
	user.ID = 3

	remember, err := token.Generate()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	userSvc := &mockUserService{
		authenticateFn: func(string, string) (*models.User, error) { return user, nil },
		rememberLoginFn: func(uint) (token.Token, time.Time, error) {
			return remember, time.Now().Add(30 * 24 * time.Hour), nil
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
		"remember": true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var found *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "remember_me" {
			found = cookie
		}
	}
	if found == nil {
		t.Fatal("expected remember_me cookie")
	}
	if !found.HttpOnly {
		t.Error("remember cookie should be HttpOnly")
	}
	if found.MaxAge <= 0 {
		t.Errorf("remember cookie should have a positive max age, got %d", found.MaxAge)
	}
	if found.Value == remember.Digest() {
		t.Error("cookie must hold the raw token, not a digest")
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	userSvc := &mockUserService{
		authenticateFn: func(string, string) (*models.User, error) {
			return nil, apperrors.ErrInvalidCredentials
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	body := decodeBody(t, w)
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", errObj["code"])
	}
}

func TestRememberedLoginHandler(t *testing.T) {
	user := &models.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	user.ID = 3

	old, err := token.Generate()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	fresh, err := token.Generate()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	userSvc := &mockUserService{
		findByRememberedFn: func(raw string) (*models.User, error) {
			if raw != old.String() {
				return nil, apperrors.ErrTokenNotFound
			}
			return user, nil
		},
		rememberLoginFn: func(uint) (token.Token, time.Time, error) {
			return fresh, time.Now().Add(30 * 24 * time.Hour), nil
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/remember", nil)
	req.AddCookie(&http.Cookie{Name: "remember_me", Value: old.String()})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["token"] == nil || body["refresh_token"] == nil {
		t.Error("expected a token pair in the response")
	}

	// The presented token is consumed and a rotated one is set.
	if len(userSvc.forgottenTokens) != 1 || userSvc.forgottenTokens[0] != old.String() {
		t.Errorf("expected old token to be consumed, got %v", userSvc.forgottenTokens)
	}
	var rotated *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "remember_me" {
			rotated = cookie
		}
	}
	if rotated == nil {
		t.Fatal("expected rotated remember_me cookie")
	}
	if rotated.Value != fresh.String() {
		t.Error("cookie should hold the fresh raw token")
	}
}

func TestRememberedLoginHandlerWithoutCookie(t *testing.T) {
	router := newAuthRouter(&mockUserService{}, &mockAuditService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/remember", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}
}

func TestRefreshHandlerRejectsUnknownDigest(t *testing.T) {
	userSvc := &mockUserService{
		getRefreshDigestFn: func(uint) (string, error) { return "different-digest", nil },
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": "not-a-jwt",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequestPasswordResetIdenticalResponses(t *testing.T) {
	known := &mockUserService{}
	missSvc := &mockUserService{
		startPasswordResetFn: func(_ context.Context, _ string) error {
			return apperrors.ErrUserNotFound
		},
	}

	knownRouter := newAuthRouter(known, &mockAuditService{})
	missRouter := newAuthRouter(missSvc, &mockAuditService{})

	hit := doJSON(t, knownRouter, http.MethodPost, "/api/v1/auth/password-reset", gin.H{"email": "alice@example.com"})
	miss := doJSON(t, missRouter, http.MethodPost, "/api/v1/auth/password-reset", gin.H{"email": "nobody@example.com"})

	if hit.Code != http.StatusOK || miss.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", hit.Code, miss.Code)
	}
	if hit.Body.String() != miss.Body.String() {
		t.Error("password reset responses should be indistinguishable")
	}
}

func TestValidatePasswordResetHandler(t *testing.T) {
	userSvc := &mockUserService{
		findByResetFn: func(string) (*models.User, error) {
			return nil, apperrors.ErrTokenNotFound
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/auth/password-reset/expiredtoken", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestResetPasswordHandler(t *testing.T) {
	var gotToken, gotPassword string
	userSvc := &mockUserService{
		resetPasswordFn: func(rawToken, password, repeatPassword string) error {
			gotToken, gotPassword = rawToken, password
			return nil
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/password-reset/sometoken", gin.H{
		"password":        "newpass1",
		"repeat_password": "newpass1",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotToken != "sometoken" || gotPassword != "newpass1" {
		t.Errorf("service called with token %q password %q", gotToken, gotPassword)
	}
}

func TestGetProfileHandler(t *testing.T) {
	user := &models.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	user.ID = 1

	userSvc := &mockUserService{
		getUserByIDFn: func(id uint) (*models.User, error) {
			if id != 1 {
				t.Errorf("expected user id 1, got %d", id)
			}
			return user, nil
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	got := body["user"].(map[string]interface{})
	if got["username"] != "alice" {
		t.Errorf("expected username alice, got %v", got["username"])
	}
}

func TestChangeUsernameHandler(t *testing.T) {
	userSvc := &mockUserService{
		changeUsernameFn: func(userID uint, newUsername string) (*models.User, error) {
			user := &models.User{Username: newUsername}
			user.ID = userID
			return user, nil
		},
	}
	audit := &mockAuditService{}
	router := newAuthRouter(userSvc, audit)

	w := doJSON(t, router, http.MethodPost, "/api/v1/profile/username", gin.H{"username": "fresh"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(audit.actions) != 1 || audit.actions[0] != "user.change_username" {
		t.Errorf("expected audit action, got %v", audit.actions)
	}
}

func TestChangePasswordHandlerValidation(t *testing.T) {
	userSvc := &mockUserService{
		changePasswordFn: func(_ uint, _, _, _ string) error {
			ve := apperrors.NewValidationError()
			ve.Add("password", "New password must differ from the current one")
			return ve
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/profile/password", gin.H{
		"current_password": "password123",
		"password":         "password123",
		"repeat_password":  "password123",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestChangePasswordHandlerRequiresCurrentPassword(t *testing.T) {
	var gotCurrent string
	userSvc := &mockUserService{
		changePasswordFn: func(_ uint, currentPassword, _, _ string) error {
			gotCurrent = currentPassword
			return nil
		},
	}
	router := newAuthRouter(userSvc, &mockAuditService{})

	// Missing current_password never reaches the service.
	w := doJSON(t, router, http.MethodPost, "/api/v1/profile/password", gin.H{
		"password":        "newpass1",
		"repeat_password": "newpass1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without current password, got %d", w.Code)
	}
	if gotCurrent != "" {
		t.Fatal("service should not be called without the current password")
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/profile/password", gin.H{
		"current_password": "oldpass1",
		"password":         "newpass1",
		"repeat_password":  "newpass1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotCurrent != "oldpass1" {
		t.Errorf("expected current password to be passed through, got %q", gotCurrent)
	}
}
