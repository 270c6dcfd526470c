package handlers

import (
	"agrivision-core/app/server/models"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageUpload(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, user, "North Field", "Route 9")
	token := env.tokenFor(t, user)

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", token, map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": models.ImageTypeNDVI,
	}, "file", "scan.png", pngData())
	require.Equal(t, http.StatusCreated, rec.Code)

	var res imageInfo
	decodeJSON(t, rec, &res)
	assert.Equal(t, farm.ID, res.FarmID)
	assert.Equal(t, models.ImageTypeNDVI, res.ImageType)
	assert.Equal(t, "scan.png", res.FileName)
	assert.Equal(t, user.Email, res.UploadedBy)
	assert.NotEmpty(t, res.ImageURL)
}

func TestImageUploadInvalidType(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, user, "North Field", "Route 9")

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, user), map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": "THERMAL",
	}, "file", "scan.png", pngData())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, user, "North Field", "Route 9")

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, user), map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": models.ImageTypeAerial,
	}, "file", "notes.txt", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// 存在但不属于自己的农场是 403 ，不存在的农场是 404
func TestImageUploadOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "pw", models.RoleUser)
	bob := env.createUser(t, "bob@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, alice, "North Field", "Route 9")

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, bob), map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": models.ImageTypeNDVI,
	}, "file", "scan.png", pngData())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, bob), map[string]string{
		"farm_id":    "424242",
		"image_type": models.ImageTypeNDVI,
	}, "file", "scan.png", pngData())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// 管理员可以往任何农场传图
func TestImageUploadAdminBypassesOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "pw", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", "pw", models.RoleAdmin)
	farm := env.createFarm(t, alice, "North Field", "Route 9")

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, admin), map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": models.ImageTypeAerial,
	}, "file", "aerial.png", pngData())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// 对象存储故障要映射成 502 ，并且不落任何元数据行
func TestImageUploadBlobFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, user, "North Field", "Route 9")
	env.blob.failUpload = true

	rec := env.doMultipart(t, http.MethodPost, "/api/upload-image", env.tokenFor(t, user), map[string]string{
		"farm_id":    fmt.Sprint(farm.ID),
		"image_type": models.ImageTypeNDVI,
	}, "file", "scan.png", pngData())
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.FarmImage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserImagesSpansFarms(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	other := env.createUser(t, "other@example.com", "pw", models.RoleUser)
	farm1 := env.createFarm(t, user, "North Field", "Route 9")
	farm2 := env.createFarm(t, user, "South Field", "Route 10")
	foreign := env.createFarm(t, other, "West Field", "Route 11")

	for _, farmID := range []uint{farm1.ID, farm2.ID, foreign.ID} {
		require.NoError(t, env.db.Create(&models.FarmImage{
			FarmID:    farmID,
			ImageType: models.ImageTypeNDVI,
		}).Error)
	}

	rec := env.doJSON(t, http.MethodGet, "/api/user-images", env.tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res []imageInfo
	decodeJSON(t, rec, &res)
	require.Len(t, res, 2)
	for _, info := range res {
		assert.NotEqual(t, foreign.ID, info.FarmID)
	}
}

func TestImageDelete(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "farmer@example.com", "pw", models.RoleUser)
	other := env.createUser(t, "other@example.com", "pw", models.RoleUser)
	farm := env.createFarm(t, user, "North Field", "Route 9")

	img := models.FarmImage{
		FarmID:    farm.ID,
		PublicID:  "images/gone",
		ImageType: models.ImageTypeNDVI,
	}
	require.NoError(t, env.db.Create(&img).Error)

	// 别人的图删不掉，响应和不存在一致
	rec := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/delete-image/%d", img.ID), env.tokenFor(t, other), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/delete-image/%d", img.ID), env.tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.FarmImage{}).Where("id = ?", img.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Contains(t, env.blob.destroyed, "images/gone")
}
