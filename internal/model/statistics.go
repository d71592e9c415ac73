// internal/model/statistics.go
package model

// Scope selects the campaigns statistics are computed over.
type Scope struct {
	All    bool
	UserID int
}

type Statistics struct {
	TotalCampaigns     int `json:"total_campaigns"`
	SuccessfulAttempts int `json:"successful_attempts"`
	FailedAttempts     int `json:"failed_attempts"`
	TotalAttempts      int `json:"total_attempts"`
	MessagesSent       int `json:"messages_sent"`
}
