package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"grocollect/internal/model"
	"grocollect/internal/service"
)

const staffContextKey = "staff"

// StaffAuth parses the Bearer token and stores the staff identity in
// the request context for the role guards downstream.
func StaffAuth(jwtSecret string) echo.MiddlewareFunc {
	secret := []byte(jwtSecret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "),
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return secret, nil
				})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			id, _ := claims["sub"].(string)
			name, _ := claims["name"].(string)
			role, _ := claims["role"].(string)
			if id == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			c.Set(staffContextKey, service.StaffIdentity{
				ID:   id,
				Name: name,
				Role: model.StaffRole(role),
			})
			return next(c)
		}
	}
}

// RequireRole rejects requests whose staff identity carries none of the
// given roles; admin always passes.
func RequireRole(roles ...model.StaffRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			staff, ok := c.Get(staffContextKey).(service.StaffIdentity)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if staff.Role == model.RoleAdmin {
				return next(c)
			}
			for _, r := range roles {
				if staff.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// StaffFromContext returns the authenticated staff identity; the zero
// value means StaffAuth did not run on this route.
func StaffFromContext(c echo.Context) service.StaffIdentity {
	staff, _ := c.Get(staffContextKey).(service.StaffIdentity)
	return staff
}
