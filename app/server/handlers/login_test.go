package handlers

import (
	"agrivision-core/app/server/models"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/register", "", map[string]string{
		"full_name":    "Alice Farmer",
		"email":        "alice@example.com",
		"phone_number": "111222333",
		"password":     "secret-pass",
	}, "", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// 数据库里不允许出现明文密码
	var user models.User
	require.NoError(t, env.db.First(&user, "email = ?", "alice@example.com").Error)
	assert.NotEqual(t, "secret-pass", user.Password)
	assert.NotEmpty(t, user.Salt)
	assert.Equal(t, models.RoleUser, user.Role)

	rec = env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res loginToken
	decodeJSON(t, rec, &res)
	assert.NotEmpty(t, res.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", "pw", models.RoleUser)

	rec := env.doMultipart(t, http.MethodPost, "/api/register", "", map[string]string{
		"full_name":    "Other",
		"email":        "taken@example.com",
		"phone_number": "111",
		"password":     "pw2",
	}, "", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/register", "", map[string]string{
		"full_name": "No Email",
		"password":  "pw",
	}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterWithAvatar(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/register", "", map[string]string{
		"full_name":    "Ava",
		"email":        "ava@example.com",
		"phone_number": "444",
		"password":     "pw",
	}, "avatar", "me.png", pngData())
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.db.First(&user, "email = ?", "ava@example.com").Error)
	assert.NotEmpty(t, user.Avatar)
	assert.NotEmpty(t, user.PublicID)
}

func TestRegisterRejectsNonImageAvatar(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/register", "", map[string]string{
		"full_name":    "Bad Avatar",
		"email":        "bad@example.com",
		"phone_number": "555",
		"password":     "pw",
	}, "avatar", "doc.txt", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// 未知邮箱和密码错误必须走完全一致的响应
func TestLoginUniformInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "known@example.com", "right-pass", models.RoleUser)

	recUnknown := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	recWrongPass := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "known@example.com",
		"password": "wrong-pass",
	})

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrongPass.Code)
	assert.Equal(t, recUnknown.Body.String(), recWrongPass.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "only@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// 改密码之后旧密码必须失效，新密码生效，且盐一定换过
func TestUpdatePasswordRotation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "rotate@example.com", "pw1", models.RoleUser)
	oldSalt := user.Salt
	token := env.tokenFor(t, user)

	rec := env.doJSON(t, http.MethodPut, "/api/update-password", token, map[string]string{
		"new_password": "pw2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, env.db.First(&updated, "id = ?", user.ID).Error)
	assert.NotEqual(t, oldSalt, updated.Salt)

	recOld := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "rotate@example.com",
		"password": "pw1",
	})
	assert.Equal(t, http.StatusUnauthorized, recOld.Code)

	recNew := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "rotate@example.com",
		"password": "pw2",
	})
	assert.Equal(t, http.StatusOK, recNew.Code)
}

func TestBearerRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/profile", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "prof@example.com", "pw", models.RoleUser)
	env.createFarm(t, user, "Green Acres", "Valley Road")
	token := env.tokenFor(t, user)

	rec := env.doJSON(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res profileResponse
	decodeJSON(t, rec, &res)
	assert.Equal(t, "prof@example.com", res.Email)
	require.Len(t, res.Farms, 1)
	assert.Equal(t, "Green Acres", res.Farms[0].FarmName)
	assert.Nil(t, res.Avatar)

	rec = env.doJSON(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back")
}
