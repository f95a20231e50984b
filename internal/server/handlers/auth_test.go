package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	var gotUserID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = userIDFrom(r)
		w.WriteHeader(http.StatusOK)
	})

	valid := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID int64
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, 42},
		{"missing header", "", http.StatusUnauthorized, 0},
		{"not a bearer scheme", "Basic abc123", http.StatusUnauthorized, 0},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, 0},
		{
			"wrong secret",
			"Bearer " + signToken(t, "other-secret", jwt.MapClaims{"user_id": 42}),
			http.StatusUnauthorized, 0,
		},
		{
			"expired token",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"user_id": 42,
				"exp":     time.Now().Add(-time.Hour).Unix(),
			}),
			http.StatusUnauthorized, 0,
		},
		{
			"missing user_id claim",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "42"}),
			http.StatusUnauthorized, 0,
		},
		{
			"non-integer user_id",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 41.5}),
			http.StatusUnauthorized, 0,
		},
		{
			"non-positive user_id",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 0}),
			http.StatusUnauthorized, 0,
		},
		{
			"string user_id",
			"Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "42"}),
			http.StatusUnauthorized, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID, gotOK = 0, false

			req := httptest.NewRequest(http.MethodGet, "/api/v1/map/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			auth.Middleware(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if !gotOK || gotUserID != tt.wantUserID {
					t.Fatalf("user id = (%d, %v), want (%d, true)", gotUserID, gotOK, tt.wantUserID)
				}
			}
		})
	}
}

func TestAuthenticator_RejectsUnsignedAlgorithm(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	// alg=none tokens must never pass, whatever the claims say.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 42})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	rec := httptest.NewRecorder()

	auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an unsigned token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
