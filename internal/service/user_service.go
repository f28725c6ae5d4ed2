package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=80"`
	Email       string `json:"email" binding:"required,email"`
	FullName    string `json:"full_name" binding:"max=200"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"required,oneof=admin manager employee"`
	WarehouseID string `json:"warehouse_id"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" binding:"omitempty,email"`
	FullName    *string `json:"full_name"`
	Role        string  `json:"role" binding:"omitempty,oneof=admin manager employee"`
	WarehouseID *string `json:"warehouse_id"`
	Password    string  `json:"password" binding:"omitempty,min=6"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type UpdateThemeRequest struct {
	Theme string `json:"theme" binding:"required,theme"`
}

// UserResponse never exposes the password hash
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Role          string     `json:"role"`
	WarehouseID   *uuid.UUID `json:"warehouse_id"`
	WarehouseName string     `json:"warehouse_name,omitempty"`
	Theme         string     `json:"theme"`
	IsActive      bool       `json:"is_active"`
	LastLogin     *time.Time `json:"last_login"`
	CreatedAt     time.Time  `json:"created_at"`
}

type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// TokenIssuer signs an access token for the user
type TokenIssuer func(userID, role string, ttl time.Duration) (string, error)

type UserService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, userID string) (*MeResponse, error)
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int, search string) ([]UserResponse, int64, error)
	GetUser(ctx context.Context, id string) (*UserResponse, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	ToggleUserStatus(ctx context.Context, actorID, id string) (*UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
	UpdateTheme(ctx context.Context, userID, theme string) (*UserResponse, error)
}

type userService struct {
	repo          repository.UserRepository
	roleRepo      repository.RoleRepository
	warehouseRepo repository.WarehouseRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	issueToken    TokenIssuer
	tokenTTL      time.Duration
	now           func() time.Time
}

func NewUserService(
	repo repository.UserRepository,
	roleRepo repository.RoleRepository,
	warehouseRepo repository.WarehouseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	issueToken TokenIssuer,
	tokenTTL time.Duration,
) UserService {
	return &userService{
		repo:          repo,
		roleRepo:      roleRepo,
		warehouseRepo: warehouseRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		issueToken:    issueToken,
		tokenTTL:      tokenTTL,
		now:           time.Now,
	}
}

func toUserResponse(user *model.User) UserResponse {
	res := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		WarehouseID: user.WarehouseID,
		Theme:       user.Theme,
		IsActive:    user.IsActive,
		LastLogin:   user.LastLogin,
		CreatedAt:   user.CreatedAt,
	}
	if user.Warehouse != nil {
		res.WarehouseName = user.Warehouse.Name
	}
	return res
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetByLogin(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := s.issueToken(user.ID.String(), user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.TouchLastLogin(txCtx, user.ID, now); err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, user.ID.String(), model.ActionLogin, user.ID.String(), user.Username, nil)
	})
	if err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return &LoginResponse{Token: token, ExpiresAt: now.Add(s.tokenTTL), User: toUserResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var codes []string
	if user.Role == model.RoleAdmin {
		perms, err := s.roleRepo.ListPermissions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
		for _, p := range perms {
			codes = append(codes, p.Code)
		}
	} else {
		codes, err = s.roleRepo.GetPermissionsByRoleName(ctx, user.Role)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
	}
	if codes == nil {
		codes = []string{}
	}

	return &MeResponse{UserResponse: toUserResponse(user), Permissions: codes}, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

func (s *userService) resolveWarehouse(ctx context.Context, id string) (*uuid.UUID, error) {
	whID, err := parseOptionalID(id, "warehouse")
	if err != nil || whID == nil {
		return nil, err
	}
	if _, err := s.warehouseRepo.FindByID(ctx, *whID); err != nil {
		return nil, notFound("warehouse", err)
	}
	return whID, nil
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if !model.IsValidRole(req.Role) {
		return nil, validationError("unknown role %q", req.Role)
	}

	exists, err := s.repo.ExistsUsernameOrEmail(ctx, req.Username, req.Email, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, conflictError("username or email already registered")
	}

	warehouseID, err := s.resolveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:    req.FullName,
		Password:    string(hashed),
		Role:        req.Role,
		WarehouseID: warehouseID,
		Theme:       "blue",
		IsActive:    true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		req.Password = ""
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateUser, user.ID.String(), user.Username, req)
	})
	if err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int, search string) ([]UserResponse, int64, error) {
	page, limit = normalizePage(page, limit, 20)

	users, total, err := s.repo.List(ctx, page, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		exists, err := s.repo.ExistsUsernameOrEmail(ctx, "", req.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, conflictError("email already registered")
		}
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != "" {
		if !model.IsValidRole(req.Role) {
			return nil, validationError("unknown role %q", req.Role)
		}
		if user.ID.String() == actorID && req.Role != user.Role {
			return nil, fmt.Errorf("%w: you can not change your own role", ErrForbidden)
		}
		user.Role = req.Role
	}
	if req.WarehouseID != nil {
		whID, err := s.resolveWarehouse(ctx, *req.WarehouseID)
		if err != nil {
			return nil, err
		}
		user.WarehouseID = whID
		user.Warehouse = nil
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
		req.Password = ""
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateUser, user.ID.String(), user.Username, req)
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.ID.String() == actorID {
		return fmt.Errorf("%w: you can not delete your own account", ErrForbidden)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteUser, user.ID.String(), user.Username, `{"deleted": true}`)
	})
}

// ToggleUserStatus flips is_active. Users can not deactivate themselves.
func (s *userService) ToggleUserStatus(ctx context.Context, actorID, id string) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID.String() == actorID {
		return nil, fmt.Errorf("%w: you can not deactivate your own account", ErrForbidden)
	}

	user.IsActive = !user.IsActive
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, user.ID, user.IsActive); err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionToggleUser, user.ID.String(), user.Username,
			map[string]bool{"is_active": user.IsActive})
	})
	if err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return validationError("current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionChangePassword, user.ID.String(), user.Username, nil)
	})
}

func (s *userService) UpdateTheme(ctx context.Context, userID, theme string) (*UserResponse, error) {
	if !model.IsValidTheme(theme) {
		return nil, validationError("unknown theme %q", theme)
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Theme = theme
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update theme: %w", err)
	}
	res := toUserResponse(user)
	return &res, nil
}
