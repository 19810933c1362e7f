package middleware

import (
	"net/http"
	"strings"
	"time"

	"daily-meals/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxEmail = "user_email"
	ctxAdmin = "user_admin"
)

// Tokens issues and verifies session tokens. There is no password behind a
// session: a token only says which allow-listed email logged in.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	isAdmin func(email string) bool
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// WithAdminCheck makes every request re-check the admin claim against the
// current admin list, so removing an admin takes effect on the next request
// and renewed tokens drop the claim.
func (t *Tokens) WithAdminCheck(isAdmin func(email string) bool) *Tokens {
	t.isAdmin = isAdmin
	return t
}

func (t *Tokens) Issue(u *model.User) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": u.Email,
		"admin": u.Admin,
		"exp":   time.Now().Add(t.ttl).Unix(),
	}).SignedString(t.secret)
}

func (t *Tokens) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (t *Tokens) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := t.parse(auth[7:])
		email, _ := claims["email"].(string)
		if err != nil || email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		admin, _ := claims["admin"].(bool)
		if admin && t.isAdmin != nil {
			admin = t.isAdmin(email)
		}
		c.Set(ctxEmail, email)
		c.Set(ctxAdmin, admin)

		// renew when less than a day is left
		if exp, ok := claims["exp"].(float64); ok {
			if time.Until(time.Unix(int64(exp), 0)) < 24*time.Hour {
				if newToken, err := t.Issue(&model.User{Email: email, Admin: admin}); err == nil {
					c.Header("X-New-Token", newToken)
				}
			}
		}

		c.Next()
	}
}

// AdminOnly must run after JWTAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func Email(c *gin.Context) string { return c.GetString(ctxEmail) }
