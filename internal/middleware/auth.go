package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	authClient *auth.Client
}

func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client}, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "Authentication required"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.authClient.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "Invalid token"})
		}
		c.Set("uid", token.UID)
		return next(c)
	}
}

// VerifyToken validates a raw ID token, used by the websocket upgrade path
// where the token arrives as a query parameter.
func (m *AuthMiddleware) VerifyToken(ctx context.Context, tokenStr string) (string, error) {
	token, err := m.authClient.VerifyIDToken(ctx, tokenStr)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}

func (m *AuthMiddleware) Client() *auth.Client {
	return m.authClient
}
