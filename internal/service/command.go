package service

import (
	"strconv"
	"strings"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
)

// Inbound text resolves to exactly one command at a single dispatch point,
// instead of scattering prefix checks through the pipeline.
type inboundCommand interface {
	isInboundCommand()
}

type saveRuleCommand struct {
	rule string
}

type deleteRuleCommand struct {
	rawId string
}

type wipeRulesCommand struct{}

type chatMessageCommand struct {
	text string
}

func (saveRuleCommand) isInboundCommand()    {}
func (deleteRuleCommand) isInboundCommand()  {}
func (wipeRulesCommand) isInboundCommand()   {}
func (chatMessageCommand) isInboundCommand() {}

// parseCommand classifies a message. Admin commands only exist for the
// configured administrator; everyone else always gets a chat message.
func parseCommand(msg *dto.TelegramMessage, adminUserID int64) inboundCommand {
	text := strings.TrimSpace(msg.Text)

	if adminUserID != 0 && msg.From != nil && msg.From.Id == adminUserID {
		switch {
		case strings.HasPrefix(text, constant.AdminRuleSavePrefix):
			return saveRuleCommand{rule: strings.TrimSpace(strings.TrimPrefix(text, constant.AdminRuleSavePrefix))}
		case strings.HasPrefix(text, constant.AdminRuleDeletePrefix):
			return deleteRuleCommand{rawId: strings.TrimSpace(strings.TrimPrefix(text, constant.AdminRuleDeletePrefix))}
		case text == constant.AdminRuleWipeCommand:
			return wipeRulesCommand{}
		}
	}
	return chatMessageCommand{text: msg.Text}
}

func parseRuleId(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// numericArg reads a tool-call argument that may arrive as a JSON number or
// a numeric string, depending on how the model filled the schema.
func numericArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}
