package notification

import (
	"context"
	"fmt"

	"github.com/mutua/takabill/internal/tenant"
)

// Service sends customer notifications on behalf of a tenant, using the
// tenant's registered SMS sender name with a platform-wide fallback.
type Service struct {
	sender        SMSSender
	tenants       *tenant.Repository
	defaultSender string
}

// NewService creates a new notification service
func NewService(sender SMSSender, tenants *tenant.Repository, defaultSender string) *Service {
	return &Service{sender: sender, tenants: tenants, defaultSender: defaultSender}
}

// Send delivers a text to the phone number on behalf of the tenant. Callers
// treat the send as fire-and-forget; this method just reports the outcome.
func (s *Service) Send(ctx context.Context, tenantID int64, phone, text string) error {
	senderID := s.defaultSender
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant for notification: %w", err)
	}
	if t != nil && t.SenderID != "" {
		senderID = t.SenderID
	}

	return s.sender.SendSMS(ctx, phone, text, senderID)
}
