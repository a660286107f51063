package controllers

import (
	"context"
	"fmt"
	"strings"
	"wordy/wordy/config"
	"wordy/wordy/middlewares"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"
)

type AuthController struct {
	userDAO *dao.UserDAO
	cfg     config.Config
}

func NewAuthController(userDAO *dao.UserDAO, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		cfg:     cfg,
	}
}

// Login issues a token for username, creating the user on first login.
func (c *AuthController) Login(ctx context.Context, username string) (*types.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Validation(map[string]string{"username": "cannot be blank"})
	}
	user, err := c.userDAO.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		email := username + "@example.com"
		user, err = c.userDAO.CreateUser(ctx, username, email, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}
	token, err := middlewares.IssueToken(c.cfg, user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &types.LoginResponse{Token: token}, nil
}
