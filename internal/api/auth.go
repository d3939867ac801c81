package api

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// MinPasswordLength is enforced locally before a registration is sent.
const MinPasswordLength = 8

// Auth defines the account operations
type Auth interface {
	Register(ctx context.Context, req entity.RegisterRequest, confirmPassword string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*entity.Token, error)
}

type authClient struct {
	client *BaseClient
}

func NewAuthClient(client *BaseClient) Auth {
	return &authClient{client: client}
}

// ValidateRegistration checks a sign-up form without touching the network.
func ValidateRegistration(req entity.RegisterRequest, confirmPassword string) error {
	v := common.NewValidator().
		Field("email", strings.TrimSpace(req.Email), common.Required, common.Email).
		Field("full_name", req.FullName, common.Required).
		Field("password", req.Password, common.Required, common.MinLength(MinPasswordLength))
	if v.HasErrors() {
		return common.ValidateAndReturnError(v)
	}
	if req.Password != confirmPassword {
		return common.NewAppError("VALIDATION_ERROR", "Passwords do not match", common.ErrValidation)
	}
	return nil
}

func (c *authClient) Register(ctx context.Context, req entity.RegisterRequest, confirmPassword string) (*entity.User, error) {
	if err := ValidateRegistration(req, confirmPassword); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Organization != nil && strings.TrimSpace(*req.Organization) == "" {
		req.Organization = nil
	}

	var user entity.User
	if err := c.client.Post(ctx, "/api/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authClient) Login(ctx context.Context, email, password string) (*entity.Token, error) {
	v := common.NewValidator().
		Field("email", strings.TrimSpace(email), common.Required).
		Field("password", password, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	var token entity.Token
	err := c.client.Post(ctx, "/api/auth/login", entity.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &APIError{StatusCode: 200, Message: "login response carried no token"}
	}
	return &token, nil
}
