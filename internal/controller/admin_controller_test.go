package controller

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdminService struct {
	rules      []*dto.GlobalRuleResponse
	deletedIds []int64
	deleteErr  error
	nuked      bool
	logs       []logger.LogEntry
}

func (f *fakeAdminService) GetRules(ctx context.Context) ([]*dto.GlobalRuleResponse, error) {
	return f.rules, nil
}

func (f *fakeAdminService) DeleteRule(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIds = append(f.deletedIds, id)
	return nil
}

func (f *fakeAdminService) Nuke(ctx context.Context) error {
	f.nuked = true
	return nil
}

func (f *fakeAdminService) BuildBackup(ctx context.Context) (string, []byte, error) {
	archive := new(bytes.Buffer)
	zw := zip.NewWriter(archive)
	entry, _ := zw.Create("info.txt")
	entry.Write([]byte("test backup"))
	zw.Close()
	return "backup_test.zip", archive.Bytes(), nil
}

func (f *fakeAdminService) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return f.logs, nil
}

const testSecret = "s3cr3t"

func newAdminApp(svc *fakeAdminService) *fiber.App {
	app := fiber.New()
	NewAdminController(svc, testSecret).RegisterRoutes(app)
	return app
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	app := newAdminApp(&fakeAdminService{})

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/admin/rules"},
		{"DELETE", "/admin/rules/1"},
		{"POST", "/admin/nuke"},
		{"GET", "/admin/backup"},
		{"GET", "/admin/logs"},
	}
	for _, p := range paths {
		res, err := app.Test(httptest.NewRequest(p.method, p.path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode, "%s %s must be gated", p.method, p.path)

		res, err = app.Test(httptest.NewRequest(p.method, p.path+"?secret=wrong", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	}
}

func TestAdminEmptySecretLocksSurface(t *testing.T) {
	app := fiber.New()
	NewAdminController(&fakeAdminService{}, "").RegisterRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/admin/rules?secret=", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode, "an unset key must not mean open access")
}

func TestAdminGetRules(t *testing.T) {
	svc := &fakeAdminService{rules: []*dto.GlobalRuleResponse{
		{Id: 1, Rule: "be nice", CreatedAt: time.Now()},
	}}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("GET", "/admin/rules?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	var parsed struct {
		Success bool                      `json:"success"`
		Data    []*dto.GlobalRuleResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&parsed))
	assert.True(t, parsed.Success)
	require.Len(t, parsed.Data, 1)
	assert.Equal(t, "be nice", parsed.Data[0].Rule)
}

func TestAdminDeleteRule(t *testing.T) {
	svc := &fakeAdminService{}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("DELETE", "/admin/rules/5?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, []int64{5}, svc.deletedIds)
}

func TestAdminDeleteRuleBadId(t *testing.T) {
	svc := &fakeAdminService{}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("DELETE", "/admin/rules/abc?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Empty(t, svc.deletedIds)
}

func TestAdminDeleteRuleServiceError(t *testing.T) {
	svc := &fakeAdminService{deleteErr: errors.New("db unavailable")}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("DELETE", "/admin/rules/5?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
}

func TestAdminNuke(t *testing.T) {
	svc := &fakeAdminService{}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("POST", "/admin/nuke?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.True(t, svc.nuked)
}

func TestAdminBackupDownload(t *testing.T) {
	app := newAdminApp(&fakeAdminService{})

	res, err := app.Test(httptest.NewRequest("GET", "/admin/backup?secret="+testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "application/zip", res.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, res.Header.Get(fiber.HeaderContentDisposition), `filename="backup_test.zip"`)

	content, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	_, err = zip.NewReader(bytes.NewReader(content), int64(len(content)))
	assert.NoError(t, err, "body must be a readable zip")
}

func TestAdminGetLogs(t *testing.T) {
	svc := &fakeAdminService{logs: []logger.LogEntry{
		{Level: "error", Message: "boom", Module: "bot"},
	}}
	app := newAdminApp(svc)

	res, err := app.Test(httptest.NewRequest("GET", "/admin/logs?secret="+testSecret+"&level=error&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	var parsed struct {
		Success bool              `json:"success"`
		Data    []logger.LogEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&parsed))
	require.Len(t, parsed.Data, 1)
	assert.Equal(t, "boom", parsed.Data[0].Message)
}
