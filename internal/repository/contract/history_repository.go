package contract

import (
	"context"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
)

type HistoryRepository interface {
	AppendTurns(ctx context.Context, turns []*entity.ChatTurn) error
	FindByChatKey(ctx context.Context, chatKey int64) ([]*entity.ChatTurn, error)
	FindAll(ctx context.Context) ([]*entity.ChatTurn, error)
	CountByChatKey(ctx context.Context, chatKey int64) (int64, error)
	DeleteOldest(ctx context.Context, chatKey int64, count int64) error
	DeleteByChatKey(ctx context.Context, chatKey int64) error
	TruncateAll(ctx context.Context) error
}
