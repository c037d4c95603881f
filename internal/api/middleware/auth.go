package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/jwthelper"
)

const claimsKey = "claims"

var (
	errMissingToken  = errors.New("missing bearer token")
	errMissingClaims = errors.New("no claims on the request context")
)

type AccessTokenParser interface {
	ParseAccess(token string) (*jwthelper.Claims, error)
}

type Authenticator struct {
	parser AccessTokenParser
}

func NewAuthenticator(parser AccessTokenParser) *Authenticator {
	return &Authenticator{
		parser: parser,
	}
}

// VerifyJWT rejects requests without a valid access token and stores its claims on the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok && websocket.IsWebSocketUpgrade(ctx.Request) {
			// Browsers cannot set headers on a WebSocket handshake.
			token = ctx.Query("access_token")
			ok = token != ""
		}
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := a.parser.ParseAccess(token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(fmt.Errorf("a.parser.ParseAccess -> %w", err)))
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

// RequireRoles lets the request through when the caller holds any of roles.
// It must run after VerifyJWT.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := Claims(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingClaims))
			return
		}

		user := domain.User{Roles: claims.Roles}
		if !user.HasAnyRole(roles...) {
			err := fmt.Errorf("user %s has roles %v, want one of %v", claims.Subject, claims.Roles, roles)
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
			return
		}

		ctx.Next()
	}
}

func Claims(ctx *gin.Context) (*jwthelper.Claims, bool) {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return nil, false
	}

	claims, ok := v.(*jwthelper.Claims)
	return claims, ok
}

// Actor builds the authenticated caller from the token claims.
func Actor(ctx *gin.Context) (domain.Actor, error) {
	claims, ok := Claims(ctx)
	if !ok {
		return domain.Actor{}, errMissingClaims
	}

	id, err := claims.UserID()
	if err != nil {
		return domain.Actor{}, fmt.Errorf("claims.UserID -> %w", err)
	}

	return domain.Actor{ID: id, Roles: claims.Roles}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
