package implementation

import (
	"context"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/mapper"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/model"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"

	"gorm.io/gorm"
)

type GlobalRuleRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.HistoryMapper
}

func NewGlobalRuleRepository(db *gorm.DB) contract.GlobalRuleRepository {
	return &GlobalRuleRepositoryImpl{
		db:     db,
		mapper: mapper.NewHistoryMapper(),
	}
}

func (r *GlobalRuleRepositoryImpl) Create(ctx context.Context, rule *entity.GlobalRule) error {
	m := r.mapper.GlobalRuleToModel(rule)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*rule = *r.mapper.GlobalRuleToEntity(m)
	return nil
}

func (r *GlobalRuleRepositoryImpl) FindAll(ctx context.Context) ([]*entity.GlobalRule, error) {
	var models []*model.GlobalRule
	err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.GlobalRule, len(models))
	for i, m := range models {
		entities[i] = r.mapper.GlobalRuleToEntity(m)
	}
	return entities, nil
}

func (r *GlobalRuleRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.GlobalRule{}, id).Error
}

func (r *GlobalRuleRepositoryImpl) TruncateAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("TRUNCATE TABLE global_settings RESTART IDENTITY").Error
}
