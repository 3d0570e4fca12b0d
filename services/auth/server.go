package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	envoycore "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	envoyauth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	envoytype "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"github.com/gogo/googleapis/google/rpc"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/services/auth/db"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/status"
)

type Server struct {
	logger *zap.Logger

	signingKey []byte
	verifier   *oidc.IDTokenVerifier
	db         db.Database
}

type userClaim struct {
	Role  api.Role `json:"https://app.medchat.io/role"`
	Email string   `json:"https://app.medchat.io/email"`

	jwt.StandardClaims
}

func (s *Server) Check(ctx context.Context, req *envoyauth.CheckRequest) (*envoyauth.CheckResponse, error) {
	unAuth := &envoyauth.CheckResponse{
		Status: &status.Status{
			Code: int32(rpc.UNAUTHENTICATED),
		},
		HttpResponse: &envoyauth.CheckResponse_DeniedResponse{
			DeniedResponse: &envoyauth.DeniedHttpResponse{
				Status: &envoytype.HttpStatus{Code: 401},
				Body:   http.StatusText(http.StatusUnauthorized),
			},
		},
	}

	httpRequest := req.GetAttributes().GetRequest().GetHttp()
	headers := httpRequest.GetHeaders()

	user, err := s.Verify(ctx, headers[strings.ToLower(echo.HeaderAuthorization)])
	if err != nil {
		s.logger.Warn("denied access due to unsuccessful token verification",
			zap.String("reqId", httpRequest.Id),
			zap.String("path", httpRequest.Path),
			zap.String("method", httpRequest.Method),
			zap.Error(err))
		return unAuth, nil
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		s.logger.Warn("denied access due to failure to get email from token",
			zap.String("reqId", httpRequest.Id),
			zap.String("path", httpRequest.Path),
			zap.String("method", httpRequest.Method))
		return unAuth, nil
	}

	role := user.Role
	userID := user.Subject

	theUser, err := s.db.GetUserByEmail(user.Email)
	if err != nil {
		s.logger.Error("denied access due to failure in getting user",
			zap.String("email", user.Email),
			zap.Error(err))
		return unAuth, nil
	}
	if theUser != nil {
		if !theUser.IsActive {
			s.logger.Warn("denied access for disabled user", zap.String("email", user.Email))
			return unAuth, nil
		}

		role = theUser.Role
		if theUser.ExternalId != "" {
			userID = theUser.ExternalId
		}

		if err := s.db.UpdateUserLastLoginWithExternalID(theUser.ExternalId, time.Now()); err != nil {
			s.logger.Warn("failed to update last login", zap.String("email", user.Email), zap.Error(err))
		}
	}

	if role == "" {
		role = api.ViewerRole
	}

	return &envoyauth.CheckResponse{
		Status: &status.Status{
			Code: int32(rpc.OK),
		},

		HttpResponse: &envoyauth.CheckResponse_OkResponse{
			OkResponse: &envoyauth.OkHttpResponse{
				Headers: []*envoycore.HeaderValueOption{
					{
						Header: &envoycore.HeaderValue{
							Key:   httpserver.XMedChatUserIDHeader,
							Value: userID,
						},
					},
					{
						Header: &envoycore.HeaderValue{
							Key:   httpserver.XMedChatUserRoleHeader,
							Value: string(role),
						},
					},
					{
						Header: &envoycore.HeaderValue{
							Key:   httpserver.XMedChatUserEmailHeader,
							Value: user.Email,
						},
					},
				},
			},
		},
	}, nil
}

// Verify checks the bearer token against the configured OIDC issuer when one
// is set, then against the shared signing secret. All failures are uniform:
// the caller only learns the token did not verify.
func (s *Server) Verify(ctx context.Context, authToken string) (*userClaim, error) {
	if !strings.HasPrefix(authToken, "Bearer ") {
		return nil, errors.New("invalid authorization token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authToken, "Bearer "))
	if token == "" {
		return nil, errors.New("missing authorization token")
	}

	var u userClaim
	if s.verifier != nil {
		t, err := s.verifier.Verify(ctx, token)
		if err == nil {
			if err := t.Claims(&u); err != nil {
				return nil, err
			}

			return &u, nil
		}
	}

	_, err := jwt.ParseWithClaims(token, &u, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func newOidcVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	return provider.Verifier(&oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}), nil
}
