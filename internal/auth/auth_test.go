package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

var testSecret = []byte("test-signing-key")

func testVerifier() *Verifier {
	given := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"k1": keyfunc.NewGivenHMAC(testSecret, keyfunc.GivenKeyOptions{Algorithm: jwt.SigningMethodHS256.Alg()}),
	})
	return NewVerifier(given.Keyfunc, "user-service")
}

func signToken(t *testing.T, roles []string, exp time.Time) string {
	t.Helper()
	claims := &Claims{
		Email:       "ana@x.com",
		RealmAccess: RealmAccess{Roles: roles},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kc-1",
			Audience:  jwt.ClaimStrings{"user-service"},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func testApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var de *apperrors.DomainError
			if errors.As(err, &de) {
				return c.SendStatus(de.HTTPStatus)
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(testVerifier())
	app.Get("/admin", mw.Handle, RequirePermission("gestionar usuarios"), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Subject)
	})
	return app
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("Secr3t!")
	require.NoError(t, err)
	assert.True(t, h.Compare(hash, "Secr3t!"))
	assert.False(t, h.Compare(hash, "wrong"))
}

func TestParseTokenRejectsExpired(t *testing.T) {
	_, err := testVerifier().ParseToken(signToken(t, nil, time.Now().Add(-time.Minute)))
	assert.Error(t, err)
}

func TestPermissionGate(t *testing.T) {
	app := testApp()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"without permission", "Bearer " + signToken(t, []string{"realizar pujas"}, time.Now().Add(time.Hour)), http.StatusForbidden},
		{"with permission", "Bearer " + signToken(t, []string{"gestionar usuarios"}, time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
