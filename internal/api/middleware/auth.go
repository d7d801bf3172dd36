package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ridebook/ride-booking/internal/api/dto"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	apperrors "github.com/ridebook/ride-booking/pkg/errors"
)

const (
	ctxCallerID   = "callerID"
	ctxCallerRole = "callerRole"

	// TokenCookie is the cookie the web client stores its session token in
	TokenCookie = "token"
)

// legacyPassengerRole is what older tokens carry for passengers
const legacyPassengerRole = "user"

// Claims are the JWT claims understood by the API
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies an HS256 token from the Authorization header, the token
// cookie or the token query parameter (browsers cannot set headers on
// WebSocket upgrades) and stores the caller in the context.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			abortUnauthenticated(c, "Authentication required")
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthenticated(c, "Token expired")
				return
			}
			abortUnauthenticated(c, "Invalid token")
			return
		}

		callerID := claims.UserID
		if callerID == "" {
			callerID = claims.Subject
		}
		role, ok := normalizeRole(claims.Role)
		if callerID == "" || !ok {
			abortUnauthenticated(c, "Invalid token claims")
			return
		}

		c.Set(ctxCallerID, callerID)
		c.Set(ctxCallerRole, role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...trip.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.Forbidden("Not allowed for role "+string(role), nil))
	}
}

// CallerID returns the authenticated user id
func CallerID(c *gin.Context) string {
	return c.GetString(ctxCallerID)
}

// CallerRole returns the authenticated user's role
func CallerRole(c *gin.Context) trip.Role {
	if v, ok := c.Get(ctxCallerRole); ok {
		if role, ok := v.(trip.Role); ok {
			return role
		}
	}
	return ""
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

func normalizeRole(role string) (trip.Role, bool) {
	if role == legacyPassengerRole {
		return trip.RolePassenger, true
	}
	r := trip.Role(role)
	return r, r.IsValid()
}

func abortUnauthenticated(c *gin.Context, message string) {
	abortWithError(c, apperrors.Unauthenticated(message, nil))
}

func abortWithError(c *gin.Context, err error) {
	status, body := dto.FromError(err)
	c.AbortWithStatusJSON(status, body)
}
