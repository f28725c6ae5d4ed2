package service

import (
	"testing"

	"contapos/internal/database"
	"contapos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ToggleUserStatus(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.ToggleUserStatus(env.ctx, env.actor, env.actor)
	assert.ErrorIs(t, err, ErrForbidden)

	cashier, err := env.users.CreateUser(env.ctx, env.actor, CreateUserRequest{
		Username:    "cajero1",
		Email:       "Cajero1@Tienda.co",
		FullName:    "Luis Pérez",
		Password:    "caja2024",
		Role:        model.RoleEmployee,
		WarehouseID: env.warehouse.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "cajero1@tienda.co", cashier.Email)
	assert.True(t, cashier.IsActive)

	login, err := env.users.Login(env.ctx, LoginRequest{Username: "cajero1", Password: "caja2024"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+cashier.ID.String(), login.Token)
	require.NotNil(t, login.User.LastLogin)

	toggled, err := env.users.ToggleUserStatus(env.ctx, env.actor, cashier.ID.String())
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = env.users.Login(env.ctx, LoginRequest{Username: "cajero1@tienda.co", Password: "caja2024"})
	assert.ErrorIs(t, err, ErrInactiveUser)

	toggled, err = env.users.ToggleUserStatus(env.ctx, env.actor, cashier.ID.String())
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	_, err = env.users.Login(env.ctx, LoginRequest{Username: "cajero1", Password: "caja2024"})
	assert.NoError(t, err)
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Login(env.ctx, LoginRequest{Username: database.DefaultAdminUsername, Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Login(env.ctx, LoginRequest{Username: "fantasma", Password: database.DefaultAdminPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := env.users.Login(env.ctx, LoginRequest{Username: database.DefaultAdminUsername, Password: database.DefaultAdminPassword})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
}

func TestUserService_CreateUserConflicts(t *testing.T) {
	env := newTestEnv(t)
	req := CreateUserRequest{Username: "bodega", Email: "bodega@tienda.co", Password: "secreto1", Role: model.RoleManager}

	_, err := env.users.CreateUser(env.ctx, env.actor, req)
	require.NoError(t, err)

	_, err = env.users.CreateUser(env.ctx, env.actor, req)
	assert.ErrorIs(t, err, ErrConflict)

	req.Username, req.Email, req.Role = "otro", "otro@tienda.co", "root"
	_, err = env.users.CreateUser(env.ctx, env.actor, req)
	assert.ErrorIs(t, err, ErrValidation)
}
