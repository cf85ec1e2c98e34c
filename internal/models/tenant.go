// internal/models/tenant.go
package models

import "time"

// Tenant is a client account owning its own quota, knowledge base and
// conversation history.
type Tenant struct {
	ID                string    `json:"id"`
	CompanyName       string    `json:"companyName"`
	WebsiteURL        string    `json:"websiteUrl,omitempty"`
	ContactEmail      string    `json:"contactEmail,omitempty"`
	NotificationEmail string    `json:"notificationEmail,omitempty"`
	NotificationPhone string    `json:"notificationPhone,omitempty"`
	Plan              string    `json:"plan"`
	IsActive          bool      `json:"isActive"`
	UseAI             bool      `json:"useAi"`
	AIDailyLimit      int64     `json:"aiDailyLimit"`
	CreatedAt         time.Time `json:"createdAt"`
}
