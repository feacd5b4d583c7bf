package service

import (
	"context"
	"errors"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserService handles user CRUD. Every read shape it produces goes through
// the projector, so passwords never leave the service.
type UserService struct {
	store  Storage
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(storage Storage) *UserService {
	return &UserService{
		store:  storage,
		logger: util.GetLogger(),
	}
}

// CreateUserRequest represents a signup request
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// CreateUser persists a new user. A duplicate username surfaces as an
// InvalidRequest, the same contract the storefront already handles.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserView, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CreateUser")
	defer span.End()

	if req.Username == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "username is required")
	}
	if req.Password == "" {
		return nil, apperr.New(apperr.KindInvalidRequest, "password is required")
	}

	user := &models.User{
		Username:  req.Username,
		Password:  req.Password,
		Name:      req.Name,
		Address:   req.Address,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperr.Newf(apperr.KindInvalidRequest, "username %q already exists", req.Username)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to create user", err)
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.Hex()))
	return ProjectUser(user), nil
}

// GetUser retrieves a single user, projected.
func (s *UserService) GetUser(ctx context.Context, id string) (*UserView, error) {
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to fetch user", err)
	}
	return ProjectUser(user), nil
}

// ListUsers retrieves all users, projected.
func (s *UserService) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to list users", err)
	}
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, *ProjectUser(&users[i]))
	}
	return views, nil
}

// UpdateContactRequest carries the editable contact fields of a user.
// Username and password cannot be changed here.
type UpdateContactRequest struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// UpdateContact patches the contact fields that were supplied.
func (s *UserService) UpdateContact(ctx context.Context, id string, req *UpdateContactRequest) (*UserView, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateContact")
	defer span.End()

	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
	}

	patch := bson.M{}
	if req.Name != "" {
		patch["name"] = req.Name
	}
	if req.Address != "" {
		patch["address"] = req.Address
	}
	if req.Email != "" {
		patch["email"] = req.Email
	}
	if req.Phone != "" {
		patch["phone"] = req.Phone
	}
	if len(patch) == 0 {
		return nil, apperr.New(apperr.KindInvalidRequest,
			"at least one of name, address, email, phone must be provided")
	}

	user, err := s.store.UpdateUserContact(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
		}
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to update user", err)
	}
	return ProjectUser(user), nil
}

// DeleteUser removes a user. Orders referencing the user are untouched.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
	}
	if err := s.store.DeleteUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "user not found: %s", id)
		}
		return apperr.Wrap(apperr.KindStorageUnavailable, "failed to delete user", err)
	}
	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}
