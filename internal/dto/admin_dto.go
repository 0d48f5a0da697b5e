package dto

import "time"

type GlobalRuleResponse struct {
	Id        int64     `json:"id"`
	Rule      string    `json:"rule"`
	CreatedAt time.Time `json:"created_at"`
}
