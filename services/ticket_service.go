package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lumeno/academy-api/model"
	"gorm.io/gorm"
)

// TicketService handles support tickets and their message threads
type TicketService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewTicketService creates a new ticket service
func NewTicketService(db *gorm.DB, notifications *NotificationService) *TicketService {
	return &TicketService{db: db, notifications: notifications}
}

// CreateTicket opens a new ticket with an initial message
func (s *TicketService) CreateTicket(ctx context.Context, user *model.User, subject, body string) (*model.SupportTicket, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	ticket := model.SupportTicket{
		UserID:  user.ID,
		Subject: subject,
		Status:  model.TicketStatusOpen,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}
		message := model.TicketMessage{
			TicketID: ticket.ID,
			AuthorID: user.ID,
			IsStaff:  user.IsAdmin(),
			Body:     body,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return &ticket, nil
}

// ListTickets returns a user's tickets, newest first
func (s *TicketService) ListTickets(ctx context.Context, userID uint, limit, offset int) ([]model.SupportTicket, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.SupportTicket{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	var tickets []model.SupportTicket
	err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	return tickets, total, nil
}

// ListAllTickets returns every ticket, optionally filtered by status. Admin
// back-office view.
func (s *TicketService) ListAllTickets(ctx context.Context, status string, limit, offset int) ([]model.SupportTicket, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.SupportTicket{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	var tickets []model.SupportTicket
	err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	return tickets, total, nil
}

// GetTicket loads a ticket with its message thread. Non-admin callers can
// only see their own tickets.
func (s *TicketService) GetTicket(ctx context.Context, user *model.User, ticketID uint) (*model.SupportTicket, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	var ticket model.SupportTicket
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("ticket_messages.created_at ASC")
		}).
		First(&ticket, ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}

	if ticket.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return &ticket, nil
}

// Reply appends a message to the thread. A staff reply moves an open ticket
// to pending; a user reply reopens a pending one.
func (s *TicketService) Reply(ctx context.Context, user *model.User, ticketID uint, body string) (*model.TicketMessage, error) {
	ticket, err := s.GetTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketStatusClosed {
		return nil, ErrForbidden
	}

	message := model.TicketMessage{
		TicketID: ticket.ID,
		AuthorID: user.ID,
		IsStaff:  user.IsAdmin(),
		Body:     body,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		status := model.TicketStatusOpen
		if user.IsAdmin() {
			status = model.TicketStatusPending
		}
		return tx.Model(&model.SupportTicket{}).
			Where("id = ?", ticket.ID).
			Update("status", status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add ticket reply: %w", err)
	}

	// Tell the other side someone replied
	if user.IsAdmin() && s.notifications != nil {
		_, nerr := s.notifications.CreateNotification(ctx, CreateNotificationRequest{
			UserID:   ticket.UserID,
			Type:     model.NotificationTypeInfo,
			Category: model.NotificationCategorySupport,
			Title:    "Support replied to your ticket",
			Message:  fmt.Sprintf("There is a new reply on %q.", ticket.Subject),
			Metadata: &model.NotificationMetadata{TicketID: ticket.ID},
		})
		if nerr != nil {
			log.Printf("Failed to notify user %d about ticket reply: %v", ticket.UserID, nerr)
		}
	}

	return &message, nil
}

// SetStatus changes a ticket's status. Admin operation.
func (s *TicketService) SetStatus(ctx context.Context, ticketID uint, status model.TicketStatus) error {
	switch status {
	case model.TicketStatusOpen, model.TicketStatusPending, model.TicketStatusClosed:
	default:
		return fmt.Errorf("invalid ticket status %q", status)
	}

	result := s.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("id = ?", ticketID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update ticket status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
