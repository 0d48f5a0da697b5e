package constant

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)

const (
	ParseModeHTML = "HTML"

	// ModerationMarker is the reserved reply the model emits when a message
	// should be relayed verbatim and kept out of the history.
	ModerationMarker = "/warn"
)

// Admin chat commands. The bot owner manages global rules directly from the
// chat; these prefixes are matched against the raw message text.
const (
	AdminRuleSavePrefix   = "دستور عمومی:"
	AdminRuleDeletePrefix = "حذف دستور:"
	AdminRuleWipeCommand  = "حذف همه دستورات"
)

// Tool names advertised to Gemini.
const (
	ToolSendMessageToUser = "send_message_to_user"
	ToolDeleteChatHistory = "delete_chat_history"
)

// GlobalRuleAck is the model-side half of the acknowledgement pair every
// global rule is rendered as before being injected into the context.
const GlobalRuleAck = "Understood. I will follow this rule in every conversation."

const (
	HistoryBackendPostgres = "postgres"
	HistoryBackendFile     = "file"

	HistoryScopeChat = "chat"
	HistoryScopeUser = "user"
)
