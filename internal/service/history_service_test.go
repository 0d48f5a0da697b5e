package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopLogger satisfies logger.ILogger for tests without touching disk.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
func (noopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}

type memHistoryRepo struct {
	turns   map[int64][]*entity.ChatTurn
	findErr error
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{turns: make(map[int64][]*entity.ChatTurn)}
}

func (r *memHistoryRepo) AppendTurns(ctx context.Context, turns []*entity.ChatTurn) error {
	for _, t := range turns {
		r.turns[t.ChatKey] = append(r.turns[t.ChatKey], t)
	}
	return nil
}

func (r *memHistoryRepo) FindByChatKey(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.turns[chatKey], nil
}

func (r *memHistoryRepo) FindAll(ctx context.Context) ([]*entity.ChatTurn, error) {
	keys := make([]int64, 0, len(r.turns))
	for key := range r.turns {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	var all []*entity.ChatTurn
	for _, key := range keys {
		all = append(all, r.turns[key]...)
	}
	return all, nil
}

func (r *memHistoryRepo) CountByChatKey(ctx context.Context, chatKey int64) (int64, error) {
	return int64(len(r.turns[chatKey])), nil
}

func (r *memHistoryRepo) DeleteOldest(ctx context.Context, chatKey int64, count int64) error {
	existing := r.turns[chatKey]
	if int64(len(existing)) <= count {
		delete(r.turns, chatKey)
		return nil
	}
	r.turns[chatKey] = existing[count:]
	return nil
}

func (r *memHistoryRepo) DeleteByChatKey(ctx context.Context, chatKey int64) error {
	delete(r.turns, chatKey)
	return nil
}

func (r *memHistoryRepo) TruncateAll(ctx context.Context) error {
	r.turns = make(map[int64][]*entity.ChatTurn)
	return nil
}

type memRuleRepo struct {
	rules  []*entity.GlobalRule
	nextId int64
}

func (r *memRuleRepo) Create(ctx context.Context, rule *entity.GlobalRule) error {
	r.nextId++
	rule.Id = r.nextId
	r.rules = append(r.rules, rule)
	return nil
}

func (r *memRuleRepo) FindAll(ctx context.Context) ([]*entity.GlobalRule, error) {
	return r.rules, nil
}

func (r *memRuleRepo) Delete(ctx context.Context, id int64) error {
	kept := r.rules[:0]
	for _, rule := range r.rules {
		if rule.Id != id {
			kept = append(kept, rule)
		}
	}
	r.rules = kept
	return nil
}

func (r *memRuleRepo) TruncateAll(ctx context.Context) error {
	r.rules = nil
	return nil
}

type fakeUploader struct {
	ok       bool
	called   bool
	filename string
	content  []byte
	channel  int64
}

func (u *fakeUploader) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) bool {
	u.called = true
	u.channel = chatID
	u.filename = filename
	u.content = content
	return u.ok
}

func newTestHistoryService(repo *memHistoryRepo, rules *memRuleRepo, uploader *fakeUploader, maxTurns int, unlimited bool) IHistoryService {
	return NewHistoryService(repo, rules, uploader, -100123, maxTurns, unlimited, noopLogger{})
}

func TestSaveAppendsOrderedPair(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := newTestHistoryService(repo, &memRuleRepo{}, &fakeUploader{ok: true}, 40, false)

	err := svc.Save(context.Background(), 42, "hello there", "hi!")
	require.NoError(t, err)

	turns := repo.turns[42]
	require.Len(t, turns, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, turns[0].Role)
	assert.Equal(t, "hello there", turns[0].Text)
	assert.Equal(t, constant.ChatMessageRoleModel, turns[1].Role)
	assert.Equal(t, "hi!", turns[1].Text)
	assert.True(t, turns[0].CreatedAt.Before(turns[1].CreatedAt), "user turn must sort before model turn")
}

func TestSaveTrimsToRetentionLimit(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := newTestHistoryService(repo, &memRuleRepo{}, &fakeUploader{ok: true}, 4, false)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Save(context.Background(), 1, "question", "answer"))
	}

	assert.Len(t, repo.turns[1], 4, "history must be capped at the configured limit")
}

func TestSaveUnlimitedSkipsTrim(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := newTestHistoryService(repo, &memRuleRepo{}, &fakeUploader{ok: true}, 2, true)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Save(context.Background(), 1, "question", "answer"))
	}

	assert.Len(t, repo.turns[1], 10)
}

func TestLoadDegradesToEmptyOnStorageFailure(t *testing.T) {
	repo := newMemHistoryRepo()
	repo.findErr = errors.New("disk on fire")
	svc := newTestHistoryService(repo, &memRuleRepo{}, &fakeUploader{ok: true}, 40, false)

	turns, err := svc.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestArchiveEmptyChatSucceedsWithoutUpload(t *testing.T) {
	repo := newMemHistoryRepo()
	uploader := &fakeUploader{ok: true}
	svc := newTestHistoryService(repo, &memRuleRepo{}, uploader, 40, false)

	ok, err := svc.Archive(context.Background(), 99)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, uploader.called, "nothing to upload for an empty chat")
}

func TestArchiveUploadsZipThenDeletes(t *testing.T) {
	repo := newMemHistoryRepo()
	uploader := &fakeUploader{ok: true}
	svc := newTestHistoryService(repo, &memRuleRepo{}, uploader, 40, false)
	require.NoError(t, svc.Save(context.Background(), 5, "keep this", "sure"))

	ok, err := svc.Archive(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, uploader.called)
	assert.EqualValues(t, -100123, uploader.channel)
	assert.Contains(t, uploader.filename, "history_5_")
	assert.Empty(t, repo.turns[5], "turns must be gone after a confirmed upload")

	reader, err := zip.NewReader(bytes.NewReader(uploader.content), int64(len(uploader.content)))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "chat_5.json", reader.File[0].Name)
}

func TestArchiveKeepsTurnsWhenUploadFails(t *testing.T) {
	repo := newMemHistoryRepo()
	uploader := &fakeUploader{ok: false}
	svc := newTestHistoryService(repo, &memRuleRepo{}, uploader, 40, false)
	require.NoError(t, svc.Save(context.Background(), 5, "keep this", "sure"))

	ok, err := svc.Archive(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, repo.turns[5], 2, "an unconfirmed upload must not delete anything")
}

func TestGlobalRuleCacheInvalidatedOnWrite(t *testing.T) {
	repo := newMemHistoryRepo()
	rules := &memRuleRepo{}
	svc := newTestHistoryService(repo, rules, &fakeUploader{ok: true}, 40, false)
	ctx := context.Background()

	saved, err := svc.SaveGlobalRule(ctx, "always answer in Persian")
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Id)

	loaded, err := svc.LoadGlobalRules(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	// A second save must bust the cache so the next load sees both rules.
	_, err = svc.SaveGlobalRule(ctx, "never use Markdown")
	require.NoError(t, err)
	loaded, err = svc.LoadGlobalRules(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	require.NoError(t, svc.DeleteGlobalRule(ctx, saved.Id))
	loaded, err = svc.LoadGlobalRules(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "never use Markdown", loaded[0].Rule)
}

func TestWipeAllClearsBothStores(t *testing.T) {
	repo := newMemHistoryRepo()
	rules := &memRuleRepo{}
	svc := newTestHistoryService(repo, rules, &fakeUploader{ok: true}, 40, false)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, 1, "q", "a"))
	_, err := svc.SaveGlobalRule(ctx, "rule")
	require.NoError(t, err)

	require.NoError(t, svc.WipeAll(ctx))

	turns, _ := svc.Load(ctx, 1)
	assert.Empty(t, turns)
	loaded, err := svc.LoadGlobalRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
