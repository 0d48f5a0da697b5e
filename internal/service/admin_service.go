package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/backup"
)

// IAdminService backs the key-gated admin HTTP surface: rule management,
// the full-database wipe, log inspection and the downloadable backup.
type IAdminService interface {
	GetRules(ctx context.Context) ([]*dto.GlobalRuleResponse, error)
	DeleteRule(ctx context.Context, id int64) error
	Nuke(ctx context.Context) error
	BuildBackup(ctx context.Context) (string, []byte, error)
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type adminService struct {
	history     IHistoryService
	historyRepo contract.HistoryRepository
	sink        ILogSink
	logger      logger.ILogger
}

func NewAdminService(
	history IHistoryService,
	historyRepo contract.HistoryRepository,
	sink ILogSink,
	sysLogger logger.ILogger,
) IAdminService {
	return &adminService{
		history:     history,
		historyRepo: historyRepo,
		sink:        sink,
		logger:      sysLogger,
	}
}

func (s *adminService) GetRules(ctx context.Context) ([]*dto.GlobalRuleResponse, error) {
	rules, err := s.history.LoadGlobalRules(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.GlobalRuleResponse, len(rules))
	for i, rule := range rules {
		responses[i] = &dto.GlobalRuleResponse{
			Id:        rule.Id,
			Rule:      rule.Rule,
			CreatedAt: rule.CreatedAt,
		}
	}
	return responses, nil
}

func (s *adminService) DeleteRule(ctx context.Context, id int64) error {
	return s.history.DeleteGlobalRule(ctx, id)
}

func (s *adminService) Nuke(ctx context.Context) error {
	if err := s.history.WipeAll(ctx); err != nil {
		return err
	}
	s.logger.Warn("admin", "database wiped", nil)
	s.sink.System("WARNING", "All histories and global rules were wiped via the admin panel.")
	return nil
}

type backupRule struct {
	Rule      string    `json:"rule"`
	CreatedAt time.Time `json:"created_at"`
}

type backupTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// BuildBackup assembles a zip with every global rule and every chat's turns
// grouped by chat id, ready for download.
func (s *adminService) BuildBackup(ctx context.Context) (string, []byte, error) {
	rules, err := s.history.LoadGlobalRules(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load rules for backup: %w", err)
	}
	turns, err := s.historyRepo.FindAll(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load history for backup: %w", err)
	}

	ruleExport := make([]backupRule, len(rules))
	for i, rule := range rules {
		ruleExport[i] = backupRule{Rule: rule.Rule, CreatedAt: rule.CreatedAt}
	}
	rulesJSON, err := json.MarshalIndent(ruleExport, "", "  ")
	if err != nil {
		return "", nil, err
	}

	histories := make(map[string][]backupTurn)
	for _, turn := range turns {
		key := strconv.FormatInt(turn.ChatKey, 10)
		histories[key] = append(histories[key], backupTurn{
			Role:      turn.Role,
			Content:   turn.Text,
			CreatedAt: turn.CreatedAt,
		})
	}
	historiesJSON, err := json.MarshalIndent(histories, "", "  ")
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	archive := backup.NewArchive()
	if err := archive.AddFile("global_settings.json", rulesJSON); err != nil {
		return "", nil, err
	}
	if err := archive.AddFile("chat_histories.json", historiesJSON); err != nil {
		return "", nil, err
	}
	if err := archive.AddFile("info.txt", []byte("Backup created on: "+now.Format("2006-01-02 15:04:05 MST"))); err != nil {
		return "", nil, err
	}
	content, err := archive.Bytes()
	if err != nil {
		return "", nil, err
	}

	return backup.TimestampedName("AfghanCodeAI_DB_Backup", now), content, nil
}

func (s *adminService) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return s.logger.GetLogs(level, limit, offset)
}
