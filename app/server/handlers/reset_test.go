package handlers

import (
	"agrivision-core/app/server/models"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resetTokenRe = regexp.MustCompile(`token=([0-9a-f-]+)`)

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "reset@example.com", "old-pass", models.RoleUser)

	rec := env.doJSON(t, http.MethodPost, "/api/reset-password", "", map[string]string{
		"email": "reset@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// 邮件里带着前端重置链接
	require.Len(t, env.mail.sent, 1)
	mail := env.mail.sent[0]
	assert.Equal(t, "reset@example.com", mail.To)
	assert.Contains(t, mail.Body, "http://front.test/reset-password?token=")

	matches := resetTokenRe.FindStringSubmatch(mail.Body)
	require.Len(t, matches, 2)
	token := matches[1]

	rec = env.doJSON(t, http.MethodPut, "/api/reset-password", "", map[string]string{
		"token":        token,
		"new_password": "new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// 旧密码失效，新密码生效
	recOld := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "reset@example.com",
		"password": "old-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, recOld.Code)

	recNew := env.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "reset@example.com",
		"password": "new-pass",
	})
	assert.Equal(t, http.StatusOK, recNew.Code)

	// 令牌只能用一次
	rec = env.doJSON(t, http.MethodPut, "/api/reset-password", "", map[string]string{
		"token":        token,
		"new_password": "another-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 邮箱不存在时响应和成功完全一致，且不发邮件
func TestResetPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "known@example.com", "pw", models.RoleUser)

	recUnknown := env.doJSON(t, http.MethodPost, "/api/reset-password", "", map[string]string{
		"email": "unknown@example.com",
	})
	recKnown := env.doJSON(t, http.MethodPost, "/api/reset-password", "", map[string]string{
		"email": "known@example.com",
	})

	assert.Equal(t, http.StatusOK, recUnknown.Code)
	assert.Equal(t, http.StatusOK, recKnown.Code)
	assert.Equal(t, recUnknown.Body.String(), recKnown.Body.String())
	assert.Len(t, env.mail.sent, 1)
}

func TestResetPasswordInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPut, "/api/reset-password", "", map[string]string{
		"token":        "never-issued",
		"new_password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetPasswordMailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "reset@example.com", "pw", models.RoleUser)
	env.mail.failSend = true

	rec := env.doJSON(t, http.MethodPost, "/api/reset-password", "", map[string]string{
		"email": "reset@example.com",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
