package implementation

import (
	"context"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/mapper"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/model"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HistoryMapper
}

func NewHistoryRepository(db *gorm.DB) contract.HistoryRepository {
	return &HistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewHistoryMapper(),
	}
}

func (r *HistoryRepositoryImpl) AppendTurns(ctx context.Context, turns []*entity.ChatTurn) error {
	models := make([]*model.ChatTurn, len(turns))
	for i, t := range turns {
		if t.Id == uuid.Nil {
			t.Id = uuid.New()
		}
		models[i] = r.mapper.ChatTurnToModel(t)
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *HistoryRepositoryImpl) FindByChatKey(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error) {
	var models []*model.ChatTurn
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatKey).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatTurn, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatTurnToEntity(m)
	}
	return entities, nil
}

func (r *HistoryRepositoryImpl) FindAll(ctx context.Context) ([]*entity.ChatTurn, error) {
	var models []*model.ChatTurn
	err := r.db.WithContext(ctx).
		Order("chat_id ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatTurn, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatTurnToEntity(m)
	}
	return entities, nil
}

func (r *HistoryRepositoryImpl) CountByChatKey(ctx context.Context, chatKey int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatTurn{}).
		Where("chat_id = ?", chatKey).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *HistoryRepositoryImpl) DeleteOldest(ctx context.Context, chatKey int64, count int64) error {
	if count <= 0 {
		return nil
	}
	// Subquery to select the oldest turn ids for this chat
	subQuery := r.db.Table("chat_history").
		Select("id").
		Where("chat_id = ?", chatKey).
		Order("created_at ASC").
		Limit(int(count))
	return r.db.WithContext(ctx).Where("id IN (?)", subQuery).Delete(&model.ChatTurn{}).Error
}

func (r *HistoryRepositoryImpl) DeleteByChatKey(ctx context.Context, chatKey int64) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatKey).Delete(&model.ChatTurn{}).Error
}

func (r *HistoryRepositoryImpl) TruncateAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("TRUNCATE TABLE chat_history RESTART IDENTITY").Error
}
