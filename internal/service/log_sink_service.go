package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/telegram"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	topicChatEvents   = "bot.log.chat"
	topicSystemEvents = "bot.log.system"

	// Telegram rejects messages over 4096 chars; leave room for the marker.
	sinkMessageLimit = 4000
)

// ChannelSender is the slice of the messaging client the sink posts through.
type ChannelSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode string) error
}

// ILogSink forwards structured events to the configured Telegram channels.
// Publishing is decoupled from delivery via an in-process pub/sub, so a slow
// or failing channel post can never stall the message pipeline.
type ILogSink interface {
	Chat(user *dto.TelegramUser, userMessage, botResponse string)
	System(level, message string)
	Close() error
}

type chatEventPayload struct {
	Timestamp time.Time         `json:"timestamp"`
	User      *dto.TelegramUser `json:"user"`
	UserSays  string            `json:"user_says"`
	BotSays   string            `json:"bot_responds"`
}

type systemEventPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

type logSink struct {
	pubSub          *gochannel.GoChannel
	sender          ChannelSender
	channels        config.ChannelConfig
	adminUserID     int64
	monitoredUserID int64
	logger          logger.ILogger
	cancel          context.CancelFunc
}

func NewLogSink(sender ChannelSender, cfg *config.Config, sinkLogger logger.ILogger) ILogSink {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &logSink{
		pubSub:          pubSub,
		sender:          sender,
		channels:        cfg.Channels,
		adminUserID:     cfg.Admin.UserID,
		monitoredUserID: cfg.Admin.MonitoredUserID,
		logger:          sinkLogger,
		cancel:          cancel,
	}

	chatMessages, err := pubSub.Subscribe(ctx, topicChatEvents)
	if err == nil {
		go s.consumeChat(ctx, chatMessages)
	}
	systemMessages, err := pubSub.Subscribe(ctx, topicSystemEvents)
	if err == nil {
		go s.consumeSystem(ctx, systemMessages)
	}

	return s
}

func (s *logSink) Chat(user *dto.TelegramUser, userMessage, botResponse string) {
	s.publish(topicChatEvents, chatEventPayload{
		Timestamp: time.Now(),
		User:      user,
		UserSays:  userMessage,
		BotSays:   botResponse,
	})
}

func (s *logSink) System(level, msg string) {
	s.publish(topicSystemEvents, systemEventPayload{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
	})
}

func (s *logSink) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("logsink", "marshal event failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		s.logger.Error("logsink", "publish event failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *logSink) consumeChat(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		var payload chatEventPayload
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			s.deliverChat(ctx, &payload)
		}
		msg.Ack()
	}
}

func (s *logSink) consumeSystem(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		var payload systemEventPayload
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			s.deliverSystem(ctx, &payload)
		}
		msg.Ack()
	}
}

func (s *logSink) deliverChat(ctx context.Context, payload *chatEventPayload) {
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return
	}
	formatted := "<code>" + html.EscapeString(string(pretty)) + "</code>"

	s.sendToChannel(ctx, s.channels.All, formatted)
	if payload.User != nil && s.adminUserID != 0 && payload.User.Id == s.adminUserID {
		s.sendToChannel(ctx, s.channels.Admin, formatted)
	}
	if payload.User != nil && s.monitoredUserID != 0 && payload.User.Id == s.monitoredUserID {
		s.sendToChannel(ctx, s.channels.User, formatted)
	}
}

func (s *logSink) deliverSystem(ctx context.Context, payload *systemEventPayload) {
	formatted := fmt.Sprintf(
		"<b>[%s]</b>\n<code>%s</code>\n\n<pre>%s</pre>",
		payload.Level,
		payload.Timestamp.Format("2006-01-02 15:04:05 MST"),
		html.EscapeString(payload.Message),
	)
	s.sendToChannel(ctx, s.channels.System, formatted)
}

func (s *logSink) sendToChannel(ctx context.Context, channelID int64, text string) {
	if channelID == 0 {
		return
	}
	text = telegram.Truncate(text, sinkMessageLimit)
	if err := s.sender.SendMessage(ctx, channelID, text, nil, constant.ParseModeHTML); err != nil {
		s.logger.Error("logsink", "channel delivery failed", map[string]interface{}{
			"channel": channelID,
			"error":   err.Error(),
		})
	}
}

func (s *logSink) Close() error {
	s.cancel()
	return s.pubSub.Close()
}
