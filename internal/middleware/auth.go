package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Header names the auth middleware forwards to handlers after a token
// passes validation. Tokens themselves come from the external identity
// provider; this service only validates and extracts claims.
const (
	HeaderSubject = "X-Subject"
	HeaderRole    = "X-Role"
)

// JWTAuth validates bearer tokens and forwards the subject and role
// claims to the handlers.
func JWTAuth(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Claim headers are set by this middleware only; strip any
			// client-supplied values before validation.
			ctx.Request.Header.Del(HeaderSubject)
			ctx.Request.Header.Del(HeaderRole)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if subject, ok := claims["sub"].(string); ok {
					ctx.Request.Header.Set(HeaderSubject, subject)
				}
				if role, ok := claims["role"].(string); ok {
					ctx.Request.Header.Set(HeaderRole, role)
				}
			}

			next(ctx)
		}
	}
}

// RequireRole gates lifecycle endpoints behind the operator role.
func RequireRole(role string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Request.Header.Peek(HeaderRole)) != role {
				logger.Warn("role check failed",
					zap.String("required", role),
					zap.String("path", string(ctx.Path())))
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
