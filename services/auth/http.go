package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	envoyauth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	api2 "github.com/medchat-io/medchat/pkg/api"
	"github.com/medchat-io/medchat/pkg/httpserver"
	"github.com/medchat-io/medchat/services/auth/api"
	"github.com/medchat-io/medchat/services/auth/db"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

type httpRoutes struct {
	logger *zap.Logger

	signingKey []byte
	db         db.Database
	authServer *Server
}

func (r *httpRoutes) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	// validate token
	v1.GET("/check", r.Check)
	// users
	v1.GET("/users", httpserver.AuthorizeHandler(r.GetUsers, api2.EditorRole))
	v1.GET("/me", httpserver.AuthorizeHandler(r.GetMe, api2.ViewerRole))
	v1.POST("/user", httpserver.AuthorizeHandler(r.CreateUser, api2.AdminRole))
	v1.DELETE("/user/:id", httpserver.AuthorizeHandler(r.DeleteUser, api2.AdminRole))
	v1.POST("/user/password/reset", httpserver.AuthorizeHandler(r.ResetUserPassword, api2.ViewerRole))
	// api keys
	v1.POST("/key", httpserver.AuthorizeHandler(r.CreateAPIKey, api2.AdminRole))
	v1.GET("/keys", httpserver.AuthorizeHandler(r.ListAPIKeys, api2.AdminRole))
	v1.DELETE("/key/:id", httpserver.AuthorizeHandler(r.DeleteAPIKey, api2.AdminRole))
}

func bindValidate(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return err
	}

	if err := ctx.Validate(i); err != nil {
		return err
	}

	return nil
}

// Check godoc
//
//	@Summary		Validate Token
//	@Description	Verifies the bearer token and responds with the caller identity headers.
//	@Security		BearerToken
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	api.CheckResponse
//	@Failure		401	{object}	echo.HTTPError
//	@Router			/auth/api/v1/check [get]
func (r *httpRoutes) Check(ctx echo.Context) error {
	checkRequest := envoyauth.CheckRequest{
		Attributes: &envoyauth.AttributeContext{
			Request: &envoyauth.AttributeContext_Request{
				Http: &envoyauth.AttributeContext_HttpRequest{
					Headers: make(map[string]string),
				},
			},
		},
	}

	for k, v := range ctx.Request().Header {
		if len(v) == 0 {
			checkRequest.Attributes.Request.Http.Headers[strings.ToLower(k)] = ""
		} else {
			checkRequest.Attributes.Request.Http.Headers[strings.ToLower(k)] = v[0]
		}
	}
	originalUri, err := url.Parse(ctx.Request().Header.Get("X-Original-URI"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid original uri")
	}
	checkRequest.Attributes.Request.Http.Path = originalUri.Path
	checkRequest.Attributes.Request.Http.Method = ctx.Request().Header.Get("X-Original-Method")

	res, err := r.authServer.Check(ctx.Request().Context(), &checkRequest)
	if err != nil {
		return err
	}

	if res.Status.Code != int32(codes.OK) {
		return echo.NewHTTPError(http.StatusUnauthorized, res.Status.Message)
	}

	if res.GetOkResponse() == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no ok response")
	}

	resp := api.CheckResponse{}
	for _, header := range res.GetOkResponse().GetHeaders() {
		if header == nil || header.Header == nil {
			continue
		}
		ctx.Response().Header().Set(header.Header.Key, header.Header.Value)

		switch header.Header.Key {
		case httpserver.XMedChatUserIDHeader:
			resp.UserID = header.Header.Value
		case httpserver.XMedChatUserRoleHeader:
			resp.RoleName = api2.GetRole(header.Header.Value)
		case httpserver.XMedChatUserEmailHeader:
			resp.Email = header.Header.Value
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

// GetUsers godoc
//
//	@Summary		List Users
//	@Description	Retrieves the list of local users.
//	@Security		BearerToken
//	@Tags			users
//	@Produce		json
//	@Success		200	{array}	api.GetUsersResponse
//	@Router			/auth/api/v1/users [get]
func (r *httpRoutes) GetUsers(ctx echo.Context) error {
	users, err := r.db.GetUsers()
	if err != nil {
		r.logger.Error("failed to get users", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get users")
	}

	resp := make([]api.GetUsersResponse, 0, len(users))
	for _, u := range users {
		item := api.GetUsersResponse{
			ID:         u.ID,
			UserName:   u.Username,
			Email:      u.Email,
			ExternalId: u.ExternalId,
			CreatedAt:  u.CreatedAt,
			RoleName:   u.Role,
			IsActive:   u.IsActive,
		}
		if !u.LastLogin.IsZero() {
			lastLogin := u.LastLogin
			item.LastActivity = &lastLogin
		}
		resp = append(resp, item)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetMe godoc
//
//	@Summary		Get Me
//	@Description	Returns the calling user's details.
//	@Security		BearerToken
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	api.GetMeResponse
//	@Router			/auth/api/v1/me [get]
func (r *httpRoutes) GetMe(ctx echo.Context) error {
	userID := httpserver.GetUserID(ctx)

	user, err := r.db.GetUserByExternalID(userID)
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	resp := api.GetMeResponse{
		ID:          user.ID,
		UserName:    user.Username,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
		MemberSince: user.CreatedAt,
		Role:        user.Role,
	}
	if !user.LastLogin.IsZero() {
		lastLogin := user.LastLogin
		resp.LastLogin = &lastLogin
	}

	return ctx.JSON(http.StatusOK, resp)
}

// CreateUser godoc
//
//	@Summary		Create User
//	@Description	Creates a local user. The first created user must be an admin.
//	@Security		BearerToken
//	@Tags			users
//	@Produce		json
//	@Param			request	body	api.CreateUserRequest	true	"Request Body"
//	@Success		201
//	@Router			/auth/api/v1/user [post]
func (r *httpRoutes) CreateUser(ctx echo.Context) error {
	var req api.CreateUserRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if err := r.DoCreateUser(req); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusCreated)
}

func (r *httpRoutes) DoCreateUser(req api.CreateUserRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email address is required")
	}

	user, err := r.db.GetUserByEmail(email)
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email already used")
	}

	count, err := r.db.GetUsersCount()
	if err != nil {
		r.logger.Error("failed to get users count", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get users count")
	}
	if count == 0 && (req.Role == nil || *req.Role != api2.AdminRole) {
		return echo.NewHTTPError(http.StatusBadRequest, "the first user must have the admin role")
	}

	role := api2.ViewerRole
	if req.Role != nil {
		role = *req.Role
	}

	passwordHash := ""
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			r.logger.Error("failed to hash password", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
		}
		passwordHash = hashed
	}

	newUser := &db.User{
		Email:        email,
		Username:     email,
		FullName:     email,
		Role:         role,
		ExternalId:   fmt.Sprintf("local|%s", email),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := r.db.CreateUser(newUser); err != nil {
		r.logger.Error("failed to create user", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "failed to create user")
	}
	return nil
}

// DeleteUser godoc
//
//	@Summary		Delete User
//	@Description	Deletes a local user by id. The first user cannot be deleted.
//	@Security		BearerToken
//	@Tags			users
//	@Produce		json
//	@Param			id	path	string	true	"User ID"
//	@Success		202
//	@Router			/auth/api/v1/user/{id} [delete]
func (r *httpRoutes) DeleteUser(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	user, err := r.db.GetUser(id)
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user does not exist")
	}
	if user.ID == 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete the first user")
	}

	if err := r.db.DeleteUser(user.ID); err != nil {
		r.logger.Error("failed to delete user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// ResetUserPassword godoc
//
//	@Summary		Reset Password
//	@Description	Updates the calling user's password after verifying the current one.
//	@Security		BearerToken
//	@Tags			users
//	@Produce		json
//	@Param			request	body	api.ResetUserPasswordRequest	true	"Request Body"
//	@Success		202
//	@Router			/auth/api/v1/user/password/reset [post]
func (r *httpRoutes) ResetUserPassword(ctx echo.Context) error {
	userID := httpserver.GetUserID(ctx)

	var req api.ResetUserPasswordRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	user, err := r.db.GetUserByExternalID(userID)
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if user.PasswordHash != "" && !verifyPassword(user.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		r.logger.Error("failed to hash password", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}

	if err := r.db.UpdateUserPasswordHash(user.ID, hashed); err != nil {
		r.logger.Error("failed to update user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// CreateAPIKey godoc
//
//	@Summary		Create API Key
//	@Description	Creates an API key signed with the service signing secret.
//	@Security		BearerToken
//	@Tags			keys
//	@Produce		json
//	@Param			request	body		api.CreateAPIKeyRequest	true	"Request Body"
//	@Success		201		{object}	api.CreateAPIKeyResponse
//	@Failure		406		{object}	echo.HTTPError
//	@Router			/auth/api/v1/key [post]
func (r *httpRoutes) CreateAPIKey(ctx echo.Context) error {
	userID := httpserver.GetUserID(ctx)
	var req api.CreateAPIKeyRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	usr, err := r.db.GetUserByExternalID(userID)
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if usr == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to find user in auth")
	}

	u := userClaim{
		Role:  req.Role,
		Email: usr.Email,
		StandardClaims: jwt.StandardClaims{
			Subject: usr.ExternalId,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &u).SignedString(r.signingKey)
	if err != nil {
		r.logger.Error("failed to create token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create token")
	}

	masked := fmt.Sprintf("%s...%s", token[:10], token[len(token)-10:])

	hash := sha512.New()
	if _, err := hash.Write([]byte(token)); err != nil {
		r.logger.Error("failed to hash token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash token")
	}
	keyHash := hex.EncodeToString(hash.Sum(nil))

	currentKeyCount, err := r.db.CountApiKeysForUser(userID)
	if err != nil {
		r.logger.Error("failed to get user API key count", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user API key count")
	}
	if currentKeyCount >= 5 {
		return echo.NewHTTPError(http.StatusNotAcceptable, "maximum number of keys for user reached")
	}

	apikey := db.ApiKey{
		Name:          req.Name,
		Role:          req.Role,
		CreatorUserID: userID,
		IsActive:      true,
		MaskedKey:     masked,
		KeyHash:       keyHash,
	}
	if err := r.db.AddApiKey(&apikey); err != nil {
		r.logger.Error("failed to add API key", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to add API key")
	}

	return ctx.JSON(http.StatusCreated, api.CreateAPIKeyResponse{
		ID:        apikey.ID,
		Name:      apikey.Name,
		Active:    apikey.IsActive,
		CreatedAt: apikey.CreatedAt,
		RoleName:  apikey.Role,
		Token:     token,
	})
}

// ListAPIKeys godoc
//
//	@Summary		List API Keys
//	@Description	Lists the calling user's API keys.
//	@Security		BearerToken
//	@Tags			keys
//	@Produce		json
//	@Success		200	{object}	[]api.APIKeyResponse
//	@Router			/auth/api/v1/keys [get]
func (r *httpRoutes) ListAPIKeys(ctx echo.Context) error {
	userID := httpserver.GetUserID(ctx)
	keys, err := r.db.ListApiKeysForUser(userID)
	if err != nil {
		r.logger.Error("failed to list API keys", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list API keys")
	}

	resp := make([]api.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		resp = append(resp, api.APIKeyResponse{
			ID:            key.ID,
			CreatedAt:     key.CreatedAt,
			Name:          key.Name,
			RoleName:      key.Role,
			CreatorUserID: key.CreatorUserID,
			Active:        key.IsActive,
			MaskedKey:     key.MaskedKey,
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}

// DeleteAPIKey godoc
//
//	@Summary		Delete API Key
//	@Description	Deletes the specified API key by id.
//	@Security		BearerToken
//	@Tags			keys
//	@Produce		json
//	@Param			id	path	string	true	"Key ID"
//	@Success		202
//	@Router			/auth/api/v1/key/{id} [delete]
func (r *httpRoutes) DeleteAPIKey(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid key id")
	}

	if err := r.db.DeleteAPIKey(id); err != nil {
		r.logger.Error("failed to delete API key", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete API key")
	}

	return ctx.NoContent(http.StatusAccepted)
}
