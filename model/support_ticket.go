package model

import (
	"time"

	"gorm.io/gorm"
)

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// SupportTicket is a user-opened support conversation
type SupportTicket struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Subject   string         `gorm:"type:varchar(255);not null" json:"subject"`
	Status    TicketStatus   `gorm:"type:varchar(20);not null;default:'open'" json:"status"`

	// Relationships
	User     User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []TicketMessage `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for SupportTicket
func (SupportTicket) TableName() string {
	return "support_tickets"
}

// TicketMessage is a single message in a ticket thread
type TicketMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	IsStaff   bool      `gorm:"default:false" json:"is_staff"`
	Body      string    `gorm:"type:text;not null" json:"body"`

	// Relationships
	Ticket SupportTicket `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"-"`
	Author User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for TicketMessage
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
