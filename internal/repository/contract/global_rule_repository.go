package contract

import (
	"context"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
)

type GlobalRuleRepository interface {
	Create(ctx context.Context, rule *entity.GlobalRule) error
	FindAll(ctx context.Context) ([]*entity.GlobalRule, error)
	Delete(ctx context.Context, id int64) error
	TruncateAll(ctx context.Context) error
}
