package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/backup"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const globalRulesCacheKey = "global_rules"

// DocumentUploader is the slice of the messaging client the archive flow
// needs: a confirmed-or-not document upload.
type DocumentUploader interface {
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) bool
}

type IHistoryService interface {
	Load(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error)
	Save(ctx context.Context, chatKey int64, userText, aiText string) error
	Archive(ctx context.Context, chatKey int64) (bool, error)
	LoadGlobalRules(ctx context.Context) ([]*entity.GlobalRule, error)
	SaveGlobalRule(ctx context.Context, text string) (*entity.GlobalRule, error)
	DeleteGlobalRule(ctx context.Context, id int64) error
	WipeAll(ctx context.Context) error
}

type historyService struct {
	historyRepo    contract.HistoryRepository
	ruleRepo       contract.GlobalRuleRepository
	uploader       DocumentUploader
	archiveChannel int64
	maxTurns       int
	unlimited      bool
	rulesCache     *cache.Cache
	logger         logger.ILogger
}

func NewHistoryService(
	historyRepo contract.HistoryRepository,
	ruleRepo contract.GlobalRuleRepository,
	uploader DocumentUploader,
	archiveChannel int64,
	maxTurns int,
	unlimited bool,
	sysLogger logger.ILogger,
) IHistoryService {
	return &historyService{
		historyRepo:    historyRepo,
		ruleRepo:       ruleRepo,
		uploader:       uploader,
		archiveChannel: archiveChannel,
		maxTurns:       maxTurns,
		unlimited:      unlimited,
		rulesCache:     cache.New(5*time.Minute, 10*time.Minute),
		logger:         sysLogger,
	}
}

// Load returns the chat's turns in creation order. A storage failure degrades
// to an empty history: the bot answers without context rather than not at all.
func (s *historyService) Load(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error) {
	turns, err := s.historyRepo.FindByChatKey(ctx, chatKey)
	if err != nil {
		s.logger.Warn("history", "load failed, continuing with empty history", map[string]interface{}{
			"chat_key": chatKey,
			"error":    err.Error(),
		})
		return []*entity.ChatTurn{}, nil
	}
	return turns, nil
}

// Save appends the user turn and the model turn, then trims the chat down to
// the retention limit unless unlimited mode is configured.
func (s *historyService) Save(ctx context.Context, chatKey int64, userText, aiText string) error {
	now := time.Now()
	turns := []*entity.ChatTurn{
		{
			Id:        uuid.New(),
			ChatKey:   chatKey,
			Role:      constant.ChatMessageRoleUser,
			Text:      userText,
			CreatedAt: now,
		},
		{
			Id:        uuid.New(),
			ChatKey:   chatKey,
			Role:      constant.ChatMessageRoleModel,
			Text:      aiText,
			CreatedAt: now.Add(time.Millisecond),
		},
	}
	if err := s.historyRepo.AppendTurns(ctx, turns); err != nil {
		return fmt.Errorf("append turns: %w", err)
	}

	if s.unlimited {
		return nil
	}
	count, err := s.historyRepo.CountByChatKey(ctx, chatKey)
	if err != nil {
		return fmt.Errorf("count turns: %w", err)
	}
	if excess := count - int64(s.maxTurns); excess > 0 {
		if err := s.historyRepo.DeleteOldest(ctx, chatKey, excess); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

type archivedTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive exports the chat's turns as a zipped JSON document to the archive
// channel and deletes them only after the upload is confirmed. Any failure
// leaves the stored turns untouched.
func (s *historyService) Archive(ctx context.Context, chatKey int64) (bool, error) {
	turns, err := s.historyRepo.FindByChatKey(ctx, chatKey)
	if err != nil {
		return false, fmt.Errorf("load turns for archive: %w", err)
	}
	if len(turns) == 0 {
		return true, nil
	}

	export := make([]archivedTurn, len(turns))
	for i, t := range turns {
		export[i] = archivedTurn{Role: t.Role, Content: t.Text, CreatedAt: t.CreatedAt}
	}
	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return false, fmt.Errorf("serialize turns: %w", err)
	}

	archive := backup.NewArchive()
	if err := archive.AddFile(fmt.Sprintf("chat_%d.json", chatKey), payload); err != nil {
		return false, err
	}
	content, err := archive.Bytes()
	if err != nil {
		return false, err
	}

	filename := fmt.Sprintf("history_%d_%s.zip", chatKey, uuid.NewString())
	caption := fmt.Sprintf("Archived history for chat %d (%d turns)", chatKey, len(turns))
	if !s.uploader.SendDocument(ctx, s.archiveChannel, filename, content, caption) {
		s.logger.Warn("history", "archive upload failed, keeping turns", map[string]interface{}{
			"chat_key": chatKey,
		})
		return false, nil
	}

	if err := s.historyRepo.DeleteByChatKey(ctx, chatKey); err != nil {
		return false, fmt.Errorf("delete archived turns: %w", err)
	}
	return true, nil
}

func (s *historyService) LoadGlobalRules(ctx context.Context) ([]*entity.GlobalRule, error) {
	if cached, found := s.rulesCache.Get(globalRulesCacheKey); found {
		return cached.([]*entity.GlobalRule), nil
	}
	rules, err := s.ruleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.rulesCache.Set(globalRulesCacheKey, rules, cache.DefaultExpiration)
	return rules, nil
}

func (s *historyService) SaveGlobalRule(ctx context.Context, text string) (*entity.GlobalRule, error) {
	rule := &entity.GlobalRule{
		Rule:      text,
		CreatedAt: time.Now(),
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.rulesCache.Delete(globalRulesCacheKey)
	return rule, nil
}

func (s *historyService) DeleteGlobalRule(ctx context.Context, id int64) error {
	if err := s.ruleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.rulesCache.Delete(globalRulesCacheKey)
	return nil
}

func (s *historyService) WipeAll(ctx context.Context) error {
	if err := s.historyRepo.TruncateAll(ctx); err != nil {
		return err
	}
	if err := s.ruleRepo.TruncateAll(ctx); err != nil {
		return err
	}
	s.rulesCache.Delete(globalRulesCacheKey)
	return nil
}
