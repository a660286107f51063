package controllers

import (
	"context"
	"errors"
	"fmt"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

func (c *UserController) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := c.dao.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user %d not found", id)
	}
	return user, nil
}

func (c *UserController) UpdateUser(ctx context.Context, id int, req types.UpdateUserRequest) (*models.User, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&req.ImageURL, is.URL),
	)
	if err != nil {
		return nil, apperrors.FromValidation(err)
	}

	user, err := c.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = req.FullName
	}
	if req.ImageURL != nil {
		user.ImageURL = req.ImageURL
	}
	if err := c.dao.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("username %q is taken", user.Username)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
