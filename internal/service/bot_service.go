package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/entity"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/gemini"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/telegram"

	"github.com/patrickmn/go-cache"
)

const apologyMessage = "<b>Sorry, an internal error occurred!</b> I'm working on it."

// Messenger is the slice of the Telegram client the orchestrator uses.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode string) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Generator produces a reply for an assembled conversation context.
type Generator interface {
	Generate(ctx context.Context, rules []string, history []*gemini.Content, prompt string) (*gemini.Reply, error)
}

// IBotService runs the full pipeline for one inbound update.
type IBotService interface {
	HandleUpdate(ctx context.Context, update *dto.TelegramUpdate)
}

type botService struct {
	history     IHistoryService
	ai          Generator
	messenger   Messenger
	sink        ILogSink
	logger      logger.ILogger
	adminUserID int64
	scope       string
	seenUpdates *cache.Cache
}

func NewBotService(
	history IHistoryService,
	ai Generator,
	messenger Messenger,
	sink ILogSink,
	sysLogger logger.ILogger,
	cfg *config.Config,
) IBotService {
	return &botService{
		history:     history,
		ai:          ai,
		messenger:   messenger,
		sink:        sink,
		logger:      sysLogger,
		adminUserID: cfg.Admin.UserID,
		scope:       cfg.History.Scope,
		seenUpdates: cache.New(10*time.Minute, 15*time.Minute),
	}
}

// HandleUpdate is stateless across updates and never lets a failure escape:
// the webhook caller is acknowledged no matter what happens in here.
func (s *botService) HandleUpdate(ctx context.Context, update *dto.TelegramUpdate) {
	if update == nil || update.Message == nil || update.Message.Text == "" ||
		update.Message.From == nil || update.Message.Chat == nil {
		return
	}
	if !s.markSeen(update.UpdateId) {
		s.logger.Debug("bot", "duplicate update dropped", map[string]interface{}{
			"update_id": update.UpdateId,
		})
		return
	}

	msg := update.Message
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("bot", "panic while handling update", map[string]interface{}{
				"chat_id": msg.Chat.Id,
				"panic":   fmt.Sprint(r),
			})
			s.sink.System("ERROR", fmt.Sprintf("panic in chat %d: %v", msg.Chat.Id, r))
			_ = s.messenger.SendMessage(ctx, msg.Chat.Id, apologyMessage, &msg.MessageId, constant.ParseModeHTML)
		}
	}()

	s.logger.Info("bot", "new message", map[string]interface{}{
		"chat_id": msg.Chat.Id,
		"user_id": msg.From.Id,
	})

	switch cmd := parseCommand(msg, s.adminUserID).(type) {
	case saveRuleCommand:
		s.handleSaveRule(ctx, msg, cmd.rule)
	case deleteRuleCommand:
		s.handleDeleteRule(ctx, msg, cmd.rawId)
	case wipeRulesCommand:
		s.handleWipeRules(ctx, msg)
	case chatMessageCommand:
		s.handleChat(ctx, msg, cmd.text)
	}
}

// markSeen reports whether this update id is fresh. Telegram redelivers
// updates when it considers a webhook call lost.
func (s *botService) markSeen(updateId int64) bool {
	if updateId == 0 {
		return true
	}
	key := strconv.FormatInt(updateId, 10)
	if _, found := s.seenUpdates.Get(key); found {
		return false
	}
	s.seenUpdates.Set(key, struct{}{}, cache.DefaultExpiration)
	return true
}

func (s *botService) handleSaveRule(ctx context.Context, msg *dto.TelegramMessage, ruleText string) {
	if ruleText == "" {
		s.reply(ctx, msg, "⚠️ The rule text is empty. Usage: "+constant.AdminRuleSavePrefix+" <rule>")
		return
	}
	rule, err := s.history.SaveGlobalRule(ctx, ruleText)
	if err != nil {
		s.logger.Error("bot", "save global rule failed", map[string]interface{}{"error": err.Error()})
		s.reply(ctx, msg, "⚠️ Could not save the global rule.")
		return
	}
	s.reply(ctx, msg, fmt.Sprintf("✅ Global rule #%d saved.", rule.Id))
}

func (s *botService) handleDeleteRule(ctx context.Context, msg *dto.TelegramMessage, rawId string) {
	id, ok := parseRuleId(rawId)
	if !ok {
		s.reply(ctx, msg, "⚠️ Expected a numeric rule id. Usage: "+constant.AdminRuleDeletePrefix+" <id>")
		return
	}
	if err := s.history.DeleteGlobalRule(ctx, id); err != nil {
		s.logger.Error("bot", "delete global rule failed", map[string]interface{}{"error": err.Error()})
		s.reply(ctx, msg, "⚠️ Could not delete the global rule.")
		return
	}
	s.reply(ctx, msg, fmt.Sprintf("✅ Global rule #%d deleted.", id))
}

func (s *botService) handleWipeRules(ctx context.Context, msg *dto.TelegramMessage) {
	rules, err := s.history.LoadGlobalRules(ctx)
	if err != nil {
		s.reply(ctx, msg, "⚠️ Could not load the global rules.")
		return
	}
	for _, rule := range rules {
		if err := s.history.DeleteGlobalRule(ctx, rule.Id); err != nil {
			s.logger.Error("bot", "wipe global rules failed", map[string]interface{}{"error": err.Error()})
			s.reply(ctx, msg, "⚠️ Could not delete all global rules.")
			return
		}
	}
	s.reply(ctx, msg, fmt.Sprintf("✅ Deleted %d global rules.", len(rules)))
}

func (s *botService) handleChat(ctx context.Context, msg *dto.TelegramMessage, text string) {
	chatKey := s.chatKey(msg)
	formattedPrompt := formatPrompt(msg.From, text)

	turns, _ := s.history.Load(ctx, chatKey)
	rules := s.ruleTexts(ctx)

	reply, err := s.ai.Generate(ctx, rules, turnsToContents(turns), formattedPrompt)
	if err != nil {
		s.logger.Error("bot", "generation failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
		s.sink.System("ERROR", fmt.Sprintf("generation failed for chat %d: %v", msg.Chat.Id, err))
		s.replyHTML(ctx, msg, apologyMessage)
		return
	}

	if reply.IsToolCall() {
		s.dispatchTool(ctx, msg, chatKey, reply.ToolCall)
		return
	}

	if strings.TrimSpace(reply.Text) == constant.ModerationMarker {
		// Moderation signal: relay verbatim, skip persistence and markup.
		s.reply(ctx, msg, reply.Text)
		return
	}

	if err := s.history.Save(ctx, chatKey, formattedPrompt, reply.Text); err != nil {
		s.logger.Warn("bot", "history save failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
		s.sink.System("WARNING", fmt.Sprintf("history save failed for chat %d: %v", msg.Chat.Id, err))
	}

	s.sendFormatted(ctx, msg, reply.Text)
	s.sink.Chat(msg.From, formattedPrompt, reply.Text)
}

func (s *botService) dispatchTool(ctx context.Context, msg *dto.TelegramMessage, chatKey int64, call *gemini.FunctionCall) {
	switch call.Name {
	case constant.ToolSendMessageToUser:
		s.handleSendMessageTool(ctx, msg, call.Args)
	case constant.ToolDeleteChatHistory:
		s.handleDeleteHistoryTool(ctx, msg, chatKey)
	default:
		s.logger.Error("bot", "unknown tool requested", map[string]interface{}{
			"tool":    call.Name,
			"chat_id": msg.Chat.Id,
		})
		s.sink.System("ERROR", fmt.Sprintf("unknown tool %q requested in chat %d", call.Name, msg.Chat.Id))
		s.replyHTML(ctx, msg, fmt.Sprintf("⚠️ The model requested an unknown action: <code>%s</code>", call.Name))
	}
}

func (s *botService) handleSendMessageTool(ctx context.Context, msg *dto.TelegramMessage, args map[string]any) {
	targetId, okId := numericArg(args, "user_id")
	messageText, okText := stringArg(args, "message")
	if !okId || !okText || messageText == "" {
		s.reply(ctx, msg, "⚠️ The model tried to send a message but left out user_id or message.")
		return
	}

	if err := s.messenger.SendMessage(ctx, targetId, messageText, nil, ""); err != nil {
		s.logger.Error("bot", "tool send failed", map[string]interface{}{
			"target": targetId,
			"error":  err.Error(),
		})
		s.reply(ctx, msg, fmt.Sprintf("⚠️ Could not deliver the message to %d.", targetId))
		return
	}
	s.reply(ctx, msg, fmt.Sprintf("✅ Message delivered to %d.", targetId))
}

func (s *botService) handleDeleteHistoryTool(ctx context.Context, msg *dto.TelegramMessage, chatKey int64) {
	ok, err := s.history.Archive(ctx, chatKey)
	if err != nil {
		s.logger.Error("bot", "archive failed", map[string]interface{}{
			"chat_key": chatKey,
			"error":    err.Error(),
		})
	}
	if !ok {
		s.reply(ctx, msg, "⚠️ Could not archive the chat history. Nothing was deleted.")
		return
	}
	s.reply(ctx, msg, "🧹 Chat history archived and cleared.")
	if err := s.messenger.DeleteMessage(ctx, msg.Chat.Id, msg.MessageId); err != nil {
		s.logger.Warn("bot", "delete trigger message failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
	}
}

// sendFormatted sends the reply as HTML and falls back to a tag-stripped
// plain send if the API rejects it, so formatting never blocks delivery.
func (s *botService) sendFormatted(ctx context.Context, msg *dto.TelegramMessage, text string) {
	err := s.messenger.SendMessage(ctx, msg.Chat.Id, text, &msg.MessageId, constant.ParseModeHTML)
	if err == nil {
		return
	}
	s.logger.Warn("bot", "formatted send rejected, retrying plain", map[string]interface{}{
		"chat_id": msg.Chat.Id,
		"error":   err.Error(),
	})
	if err := s.messenger.SendMessage(ctx, msg.Chat.Id, telegram.StripTags(text), &msg.MessageId, ""); err != nil {
		s.logger.Error("bot", "plain send failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
		s.sink.System("ERROR", fmt.Sprintf("send failed for chat %d: %v", msg.Chat.Id, err))
	}
}

func (s *botService) reply(ctx context.Context, msg *dto.TelegramMessage, text string) {
	if err := s.messenger.SendMessage(ctx, msg.Chat.Id, text, &msg.MessageId, ""); err != nil {
		s.logger.Error("bot", "reply failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
	}
}

func (s *botService) replyHTML(ctx context.Context, msg *dto.TelegramMessage, text string) {
	if err := s.messenger.SendMessage(ctx, msg.Chat.Id, text, &msg.MessageId, constant.ParseModeHTML); err != nil {
		s.logger.Error("bot", "reply failed", map[string]interface{}{
			"chat_id": msg.Chat.Id,
			"error":   err.Error(),
		})
	}
}

func (s *botService) chatKey(msg *dto.TelegramMessage) int64 {
	if s.scope == constant.HistoryScopeUser {
		return msg.From.Id
	}
	return msg.Chat.Id
}

func (s *botService) ruleTexts(ctx context.Context) []string {
	rules, err := s.history.LoadGlobalRules(ctx)
	if err != nil {
		s.logger.Warn("bot", "load global rules failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	texts := make([]string, len(rules))
	for i, rule := range rules {
		texts[i] = rule.Rule
	}
	return texts
}

// formatPrompt tags the message with the speaker's identity so the model
// knows who is talking, and so the history retains that context.
func formatPrompt(from *dto.TelegramUser, text string) string {
	username := from.Username
	if username == "" {
		username = "N/A"
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return fmt.Sprintf("[User: %s (Username: @%s, ID: %d)] says:\n%s", name, username, from.Id, text)
}

func turnsToContents(turns []*entity.ChatTurn) []*gemini.Content {
	contents := make([]*gemini.Content, len(turns))
	for i, t := range turns {
		contents[i] = gemini.NewTextContent(t.Role, t.Text)
	}
	return contents
}
