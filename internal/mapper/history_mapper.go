package mapper

import (
	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/model"
)

type HistoryMapper struct{}

func NewHistoryMapper() *HistoryMapper {
	return &HistoryMapper{}
}

func (m *HistoryMapper) ChatTurnToModel(e *entity.ChatTurn) *model.ChatTurn {
	return &model.ChatTurn{
		Id:        e.Id,
		ChatId:    e.ChatKey,
		Role:      e.Role,
		Content:   e.Text,
		CreatedAt: e.CreatedAt,
	}
}

func (m *HistoryMapper) ChatTurnToEntity(mo *model.ChatTurn) *entity.ChatTurn {
	return &entity.ChatTurn{
		Id:        mo.Id,
		ChatKey:   mo.ChatId,
		Role:      mo.Role,
		Text:      mo.Content,
		CreatedAt: mo.CreatedAt,
	}
}

func (m *HistoryMapper) GlobalRuleToModel(e *entity.GlobalRule) *model.GlobalRule {
	return &model.GlobalRule{
		Id:        e.Id,
		Rule:      e.Rule,
		CreatedAt: e.CreatedAt,
	}
}

func (m *HistoryMapper) GlobalRuleToEntity(mo *model.GlobalRule) *entity.GlobalRule {
	return &entity.GlobalRule{
		Id:        mo.Id,
		Rule:      mo.Rule,
		CreatedAt: mo.CreatedAt,
	}
}
