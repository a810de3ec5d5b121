package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)
	token, err := tokens.Issue(&models.User{ID: 7, Email: "a@b.c", Role: models.RoleDriver})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, role, err := tokens.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id != 7 || role != models.RoleDriver {
		t.Fatalf("expected user 7 driver, got %d %s", id, role)
	}

	other := NewTokens([]byte("other"), time.Hour)
	if _, _, err := other.Authenticate(token); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("expected auth error for a foreign signature, got %v", err)
	}
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Minute)
	issued := time.Now()
	tokens.now = func() time.Time { return issued }
	token, _ := tokens.Issue(&models.User{ID: 1, Role: models.RoleCustomer})

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, _, err := tokens.Authenticate(token); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func newRouter(tokens *Tokens) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/admin", AuthRequired(tokens), RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	return r
}

func TestAuthRequiredAndRoles(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)
	r := newRouter(tokens)
	admin, _ := tokens.Issue(&models.User{ID: 1, Role: models.RoleAdmin})
	customer, _ := tokens.Issue(&models.User{ID: 2, Role: models.RoleCustomer})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Token abc", http.StatusUnauthorized},
		{"Bearer not-a-jwt", http.StatusUnauthorized},
		{"Bearer " + customer, http.StatusForbidden},
		{"Bearer " + admin, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("header %q: expected %d, got %d (%s)", tc.header, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
