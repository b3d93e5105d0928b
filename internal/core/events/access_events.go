package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeInvitationIssued    = "access.invitation_issued"
	EventTypeRequestAutoApproved = "access.request_auto_approved"
	EventTypeContactRegistered   = "access.contact_registered"
)

// InvitationIssuedEvent is published after an approval transaction commits.
// The mail dispatcher consumes it; a send failure never rolls anything back.
type InvitationIssuedEvent struct {
	BaseEvent
	ContactID   int64  `json:"contact_id"`
	Email       string `json:"email"`
	ContactName string `json:"contact_name"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Token       string `json:"token"`
}

func NewInvitationIssuedEvent(contactID int64, email, contactName string, projectID int64, projectName, token string) *InvitationIssuedEvent {
	return &InvitationIssuedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeInvitationIssued,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"contact_id":   contactID,
				"email":        email,
				"project_id":   projectID,
				"project_name": projectName,
			},
		},
		ContactID:   contactID,
		Email:       email,
		ContactName: contactName,
		ProjectID:   projectID,
		ProjectName: projectName,
		Token:       token,
	}
}

type RequestAutoApprovedEvent struct {
	BaseEvent
	RequestID int64  `json:"request_id"`
	ContactID int64  `json:"contact_id"`
	ProjectID int64  `json:"project_id"`
	Reason    string `json:"reason"`
}

func NewRequestAutoApprovedEvent(requestID, contactID, projectID int64, reason string) *RequestAutoApprovedEvent {
	return &RequestAutoApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestAutoApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id": requestID,
				"contact_id": contactID,
				"project_id": projectID,
				"reason":     reason,
			},
		},
		RequestID: requestID,
		ContactID: contactID,
		ProjectID: projectID,
		Reason:    reason,
	}
}

type ContactRegisteredEvent struct {
	BaseEvent
	ContactID int64  `json:"contact_id"`
	Email     string `json:"email"`
}

func NewContactRegisteredEvent(contactID int64, email string) *ContactRegisteredEvent {
	return &ContactRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeContactRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"contact_id": contactID,
				"email":      email,
			},
		},
		ContactID: contactID,
		Email:     email,
	}
}
