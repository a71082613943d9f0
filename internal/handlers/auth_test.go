package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/handlers"
	"github.com/finchsocial/finch/internal/models"
	"github.com/finchsocial/finch/internal/services"
	"github.com/stretchr/testify/assert"
)

const testChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			return &services.LoginResult{
				Status:      services.LoginStatusSuccess,
				AccessToken: "access_token_123",
				SessionID:   "session_123",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	})
	req.Header.Set("User-Agent", testChromeUA)

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "session_123", resp.SessionID)
}

func TestLogin_AuthenticationFailed(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestLogin_DeniedReturns403(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			return &services.LoginResult{
				Status:  services.LoginStatusDenied,
				Message: "mobile access is restricted at this time",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 403, &resp)
	assert.Equal(t, services.LoginStatusDenied, resp.Status)
	assert.Empty(t, resp.AccessToken)
}

func TestLogin_BraveAssertionReachesService(t *testing.T) {
	var got fingerprint.ClientInfo
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			got = info
			return &services.LoginResult{Status: services.LoginStatusSuccess}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
		Browser:  "Brave",
	})
	req.Header.Set("User-Agent", testChromeUA)

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, fingerprint.BrowserBrave, got.Browser)
	assert.Equal(t, "Brave", got.BrowserName)
}

func TestLogin_InvalidBody(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Email: "not-an-email",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestRegister_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			assert.Equal(t, "newuser", username)
			assert.Equal(t, "new@example.com", email)
			return &services.LoginResult{
				Status:      services.LoginStatusSuccess,
				AccessToken: "access_token_new",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/register", handlers.RegisterRequest{
		Username: "NewUser",
		Email:    "New@Example.com",
		Password: "Password123!",
		Name:     "New User",
	})
	req.Header.Set("User-Agent", testChromeUA)

	w := httptest.NewRecorder()
	handler.Register(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "access_token_new", resp.AccessToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password, name string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/register", handlers.RegisterRequest{
		Username: "newuser",
		Email:    "taken@example.com",
		Password: "Password123!",
		Name:     "New User",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestVerifyOTP_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyBrowserOTPFunc: func(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			assert.Equal(t, "123456", code)
			return &services.LoginResult{
				Status:      services.LoginStatusSuccess,
				AccessToken: "access_token_otp",
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/verify-otp", handlers.VerifyOTPRequest{
		Email: "user@example.com",
		Code:  "123456",
	})
	req.Header.Set("User-Agent", testChromeUA)

	w := httptest.NewRecorder()
	handler.VerifyOTP(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access_token_otp", resp.AccessToken)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyBrowserOTPFunc: func(ctx context.Context, email, code string, info fingerprint.ClientInfo) (*services.LoginResult, error) {
			return nil, models.ErrOTPMismatch
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/verify-otp", handlers.VerifyOTPRequest{
		Email: "user@example.com",
		Code:  "000000",
	})

	w := httptest.NewRecorder()
	handler.VerifyOTP(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestMe_Unauthenticated(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, nil)
	req := handlers.NewTestRequest(t, "GET", "/auth/me", nil)

	w := httptest.NewRecorder()
	handler.Me(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestMe_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		MeFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			assert.Equal(t, "user123", userID)
			return &services.UserResponse{ID: "user123", Username: "alice"}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "GET", "/auth/me", nil)
	req = handlers.WithAuthContext(req, "user123", "session123")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	var resp services.UserResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "alice", resp.Username)
}

func TestLogout_PassesSessionID(t *testing.T) {
	var gotUser, gotSession string
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, userID, sessionID string) error {
			gotUser, gotSession = userID, sessionID
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/logout", nil)
	req = handlers.WithAuthContext(req, "user123", "session456")

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "user123", gotUser)
	assert.Equal(t, "session456", gotSession)
}
