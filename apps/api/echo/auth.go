package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/user"
)

var contextClaimsKey = "userToken"

// appJWTConfig is the default JWT auth middleware config. The signing key is
// read lazily so tests can swap core.Conf before the first request.
func appJWTConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextClaimsKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Email:    usr.Email,
		Role:     usr.Role.String(),
	}
}

func authenticate(ctx context.Context, uname, pwd string, svc user.Service) (*Claims, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	return GetUserClaims(usr), nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	conf := appJWTConfig()
	method := jwt.GetSigningMethod(conf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(conf.SigningKey.([]byte))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextClaimsKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextActor extracts the authenticated (ID, Role) pair the decision
// engine trusts. Profile facts are re-derived by the engine, never read from
// the token.
func getContextActor(ctx echo.Context) (authz.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return authz.Actor{}, err
	}
	return authz.Actor{ID: claims.UserID(), Role: user.Role(claims.Role)}, nil
}

// authorize runs the engine on the request and converts non-Allow verdicts to
// their transport errors. Deny maps to 403 even when the underlying entity
// does not exist, so callers cannot probe for existence.
func authorize(ctx echo.Context, engine *authz.Engine, req authz.Request) (authz.Verdict, error) {
	actor, err := getContextActor(ctx)
	if err != nil {
		return authz.Verdict{}, err
	}
	verdict, err := engine.Authorize(ctx.Request().Context(), actor, req)
	if err != nil {
		return authz.Verdict{}, errors.Wrap(err, "authorizing request")
	}
	switch verdict.Decision {
	case authz.Allow:
		return verdict, nil
	case authz.NotFound:
		return verdict, errHTTPNotFound
	default:
		return verdict, errHTTPForbidden
	}
}
