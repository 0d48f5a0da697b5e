package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingSender) SendMessage(ctx context.Context, chatID int64, text string, replyTo *int64, parseMode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{chatID: chatID, text: text, replyTo: replyTo, parseMode: parseMode})
	return nil
}

func (r *recordingSender) snapshot() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

func sinkTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.UserID = 777
	cfg.Admin.MonitoredUserID = 888
	cfg.Channels = config.ChannelConfig{System: -1001, All: -1002, Admin: -1003, User: -1004}
	return cfg
}

func TestLogSinkChatEventReachesAllChannel(t *testing.T) {
	sender := &recordingSender{}
	sink := NewLogSink(sender, sinkTestConfig(), noopLogger{})
	defer sink.Close()

	sink.Chat(&dto.TelegramUser{Id: 200, FirstName: "Ahmad"}, "salam", "salam Ahmad")

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := sender.snapshot()[0]
	assert.EqualValues(t, -1002, sent.chatID)
	assert.True(t, strings.HasPrefix(sent.text, "<code>"))
	assert.Contains(t, sent.text, "salam Ahmad")
}

func TestLogSinkAdminChatMirroredToAdminChannel(t *testing.T) {
	sender := &recordingSender{}
	sink := NewLogSink(sender, sinkTestConfig(), noopLogger{})
	defer sink.Close()

	sink.Chat(&dto.TelegramUser{Id: 777, FirstName: "Boss"}, "hi", "hello")

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	channels := map[int64]bool{}
	for _, sent := range sender.snapshot() {
		channels[sent.chatID] = true
	}
	assert.True(t, channels[-1002])
	assert.True(t, channels[-1003])
}

func TestLogSinkMonitoredUserMirrored(t *testing.T) {
	sender := &recordingSender{}
	sink := NewLogSink(sender, sinkTestConfig(), noopLogger{})
	defer sink.Close()

	sink.Chat(&dto.TelegramUser{Id: 888}, "hi", "hello")

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	channels := map[int64]bool{}
	for _, sent := range sender.snapshot() {
		channels[sent.chatID] = true
	}
	assert.True(t, channels[-1004])
}

func TestLogSinkSystemEventFormatted(t *testing.T) {
	sender := &recordingSender{}
	sink := NewLogSink(sender, sinkTestConfig(), noopLogger{})
	defer sink.Close()

	sink.System("ERROR", "something <broke>")

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := sender.snapshot()[0]
	assert.EqualValues(t, -1001, sent.chatID)
	assert.Contains(t, sent.text, "<b>[ERROR]</b>")
	assert.Contains(t, sent.text, "something &lt;broke&gt;", "payload must be HTML-escaped")
}

func TestLogSinkUnconfiguredChannelSkipped(t *testing.T) {
	sender := &recordingSender{}
	cfg := sinkTestConfig()
	cfg.Channels.System = 0
	sink := NewLogSink(sender, cfg, noopLogger{})
	defer sink.Close()

	sink.System("INFO", "nothing to see")
	sink.Chat(&dto.TelegramUser{Id: 200}, "hi", "hello")

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, -1002, sender.snapshot()[0].chatID, "only the chat event is delivered")
}

func TestLogSinkTruncatesLongMessages(t *testing.T) {
	sender := &recordingSender{}
	sink := NewLogSink(sender, sinkTestConfig(), noopLogger{})
	defer sink.Close()

	sink.System("INFO", strings.Repeat("x", 10000))

	require.Eventually(t, func() bool {
		return len(sender.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	sent := sender.snapshot()[0]
	assert.LessOrEqual(t, len(sent.text), telegram.MaxMessageLength)
	assert.Contains(t, sent.text, "[MESSAGE TRUNCATED]")
}
