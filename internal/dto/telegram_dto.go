package dto

// TelegramUpdate is the inbound webhook payload. Only the fields the bot
// acts on are decoded; everything else in the update is ignored.
type TelegramUpdate struct {
	UpdateId int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type TelegramMessage struct {
	MessageId int64         `json:"message_id"`
	Text      string        `json:"text"`
	From      *TelegramUser `json:"from"`
	Chat      *TelegramChat `json:"chat"`
}

type TelegramUser struct {
	Id        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type TelegramChat struct {
	Id int64 `json:"id"`
}
