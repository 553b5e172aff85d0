package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/readmodel"
	"github.com/spec-kit/user-service/internal/service"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// UserCommands is the write side the handler drives.
type UserCommands interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (string, error)
	UpdateProfile(ctx context.Context, in service.UpdateProfileInput) (bool, error)
	ChangePassword(ctx context.Context, id, current, next string) (bool, error)
	ResetPassword(ctx context.Context, token, next string) (bool, error)
	AssignRole(ctx context.Context, id string, roleID int) (bool, error)
	ConfirmAccount(ctx context.Context, email, code string) (bool, error)
	RequestRecovery(ctx context.Context, email string) (bool, error)
}

// UserQueries is the read side the handler drives.
type UserQueries interface {
	UserByID(ctx context.Context, id string) (*readmodel.UserDocument, error)
	UserByEmail(ctx context.Context, email string) (*readmodel.UserDocument, error)
	Users(ctx context.Context) ([]readmodel.UserDocument, error)
	Activities(ctx context.Context, filter readmodel.ActivityFilter) ([]readmodel.ActivityDocument, error)
}

// UsersHandler exposes the user endpoints.
type UsersHandler struct {
	commands UserCommands
	queries  UserQueries
}

// NewUsersHandler constructs handler.
func NewUsersHandler(commands UserCommands, queries UserQueries) *UsersHandler {
	return &UsersHandler{commands: commands, queries: queries}
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	id, err := h.commands.CreateUser(c.UserContext(), service.CreateUserInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		if id != "" && errors.Is(err, apperrors.ErrNotification) {
			return withDetails(err, map[string]any{"id": id})
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"id": id},
	})
}

// UpdateProfile handles PUT /api/users/:id/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ID:       c.Params("id"),
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	return respondOutcome(c, ok, err, apperrors.NewNotFound("user", nil))
}

// ChangePassword handles PUT /api/users/:id/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.ChangePassword(c.UserContext(), c.Params("id"), req.CurrentPassword, req.NewPassword)
	return respondOutcome(c, ok, err, apperrors.NewNotFound("user", nil))
}

// AssignRole handles PUT /api/users/:id/role.
func (h *UsersHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.AssignRole(c.UserContext(), c.Params("id"), req.RoleID)
	return respondOutcome(c, ok, err, apperrors.NewNotFound("user", nil))
}

// Confirm handles POST /api/users/confirm.
func (h *UsersHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmAccountRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.ConfirmAccount(c.UserContext(), req.Email, req.Code)
	return respondOutcome(c, ok, err, apperrors.NewValidationError("invalid or expired confirmation code", nil))
}

// RequestRecovery handles POST /api/users/password/recovery.
func (h *UsersHandler) RequestRecovery(c *fiber.Ctx) error {
	var req dto.RecoveryRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.RequestRecovery(c.UserContext(), req.Email)
	return respondOutcome(c, ok, err, apperrors.NewNotFound("user", nil))
}

// ResetPassword handles POST /api/users/password/reset.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ok, err := h.commands.ResetPassword(c.UserContext(), req.Token, req.NewPassword)
	return respondOutcome(c, ok, err, apperrors.NewValidationError("invalid or expired recovery token", nil))
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	doc, err := h.queries.UserByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*doc)})
}

// List handles GET /api/users. An email query parameter narrows the result
// to a single user.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	if email := c.Query("email"); email != "" {
		doc, err := h.queries.UserByEmail(c.UserContext(), email)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": []dto.UserResponse{dto.NewUserResponse(*doc)}})
	}

	docs, err := h.queries.Users(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewUserResponse(d))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Activities handles GET /api/users/activities and GET /api/users/:id/activities.
func (h *UsersHandler) Activities(c *fiber.Ctx) error {
	filter, err := activityFilter(c)
	if err != nil {
		return err
	}
	if id := c.Params("id"); id != "" {
		filter.UserID = id
	}

	docs, err := h.queries.Activities(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityResponses(docs)})
}

func activityFilter(c *fiber.Ctx) (readmodel.ActivityFilter, error) {
	filter := readmodel.ActivityFilter{
		UserID: c.Query("user"),
		Action: c.Query("action"),
	}
	var err error
	if filter.From, err = parseTime(c.Query("from")); err != nil {
		return filter, apperrors.NewValidationError("invalid from", map[string]any{"from": err.Error()})
	}
	if filter.To, err = parseTime(c.Query("to")); err != nil {
		return filter, apperrors.NewValidationError("invalid to", map[string]any{"to": err.Error()})
	}
	return filter, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func parseID(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, nil)
	}
	return id, nil
}
