// internal/model/delivery_attempt.go
package model

import "time"

// Attempt statuses
const (
	AttemptSuccessful = "successful"
	AttemptFailed     = "failed"
)

// ResponseOK is stored as the server response of a successful attempt.
const ResponseOK = "OK"

// DeliveryAttempt is the immutable outcome of one send to one recipient.
type DeliveryAttempt struct {
	ID             int       `db:"id" json:"id"`
	CampaignID     int       `db:"campaign_id" json:"campaign_id"`
	AttemptTime    time.Time `db:"attempt_time" json:"attempt_time"`
	Status         string    `db:"status" json:"status"` // successful, failed
	ServerResponse string    `db:"server_response" json:"server_response"`
}
