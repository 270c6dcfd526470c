package handlers

import (
	"agrivision-core/app/server/blob"
	"agrivision-core/app/server/inits"
	"agrivision-core/app/server/jwt"
	"agrivision-core/app/server/models"
	"agrivision-core/app/server/password"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBlob 在内存里记录上传和删除，模拟对象存储
type fakeBlob struct {
	mu         sync.Mutex
	uploads    int
	destroyed  []string
	failUpload bool
}

func (f *fakeBlob) Upload(_ context.Context, _ []byte, folder string, filename string) (*blob.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpload {
		return nil, fmt.Errorf("upload failed")
	}

	f.uploads++
	publicID := fmt.Sprintf("%s/fake-%d", folder, f.uploads)
	return &blob.Asset{
		SecureURL:        "https://blob.test/" + publicID,
		PublicID:         publicID,
		OriginalFilename: filename,
	}, nil
}

func (f *fakeBlob) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.destroyed = append(f.destroyed, publicID)
	return nil
}

// fakeMailer 捕获发出的邮件内容
type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failSend bool
}

type sentMail struct {
	Subject string
	To      string
	Body    string
}

func (f *fakeMailer) Send(_ context.Context, subject string, to string, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend {
		return fmt.Errorf("send failed")
	}

	f.sent = append(f.sent, sentMail{Subject: subject, To: to, Body: htmlBody})
	return nil
}

type testEnv struct {
	app  *App
	e    *echo.Echo
	db   *gorm.DB
	mr   *miniredis.Miniredis
	blob *fakeBlob
	mail *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库只能走同一条连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, inits.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	j, err := jwt.New("test-signature-secret")
	require.NoError(t, err)

	fb := &fakeBlob{}
	fm := &fakeMailer{}

	app := NewApp(zap.NewNop(), db, rdb, j, fb, fm, time.Hour, "http://front.test")

	e := echo.New()
	RegisterRoutes(e, app)

	return &testEnv{
		app:  app,
		e:    e,
		db:   db,
		mr:   mr,
		blob: fb,
		mail: fm,
	}
}

func (env *testEnv) createUser(t *testing.T, email string, plainPassword string, role models.Role) *models.User {
	t.Helper()

	salt, err := password.NewSalt()
	require.NoError(t, err)
	hash, err := password.Derive(plainPassword, salt)
	require.NoError(t, err)

	user := models.User{
		FullName:    "Test " + email,
		Email:       email,
		PhoneNumber: "123456789",
		Password:    hash,
		Salt:        salt,
		Role:        role,
	}
	require.NoError(t, env.db.Create(&user).Error)

	return &user
}

func (env *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := env.app.jwt.SignToken(&jwt.User{
		ID:      user.ID,
		IsAdmin: user.Role.IsAdmin(),
		Expires: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	return token
}

func (env *testEnv) doJSON(t *testing.T, method string, target string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doMultipart(t *testing.T, method string, target string, token string, fields map[string]string, fileField string, fileName string, fileData []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// pngData 是 DetectContentType 能认出来的最小 PNG 头
func pngData() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}

func (env *testEnv) createFarm(t *testing.T, owner *models.User, name string, location string) *models.Farm {
	t.Helper()

	farm := models.Farm{
		UserID:       owner.ID,
		FarmName:     name,
		FarmLocation: location,
	}
	require.NoError(t, env.db.Create(&farm).Error)

	return &farm
}
