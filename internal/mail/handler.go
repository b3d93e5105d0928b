package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viaviktor/rfisys/internal/core/events"
)

// RegisterHandlers wires mail delivery onto the post-commit event bus.
func RegisterHandlers(bus *events.EventBus, dispatcher Dispatcher, baseURL string, logger *slog.Logger) {
	bus.Subscribe(events.EventTypeInvitationIssued, func(ctx context.Context, event events.Event) error {
		ev, ok := event.(*events.InvitationIssuedEvent)
		if !ok {
			logger.Error("unexpected event payload", "event_type", event.EventType())
			return nil
		}

		return dispatcher.Enqueue(InvitationMessage(ev, baseURL))
	})
}

// InvitationMessage renders the registration invite carrying the single-use
// token link.
func InvitationMessage(ev *events.InvitationIssuedEvent, baseURL string) Message {
	link := fmt.Sprintf("%s/register?token=%s", baseURL, ev.Token)

	name := ev.ContactName
	if name == "" {
		name = ev.Email
	}

	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>You have been granted stakeholder access to project <strong>%s</strong>.</p>
<p>To activate your account, complete your registration here:</p>
<p><a href="%s">%s</a></p>
<p>This link is valid for a limited time and can only be used once.</p>`,
		name, ev.ProjectName, link, link)

	return Message{
		To:       ev.Email,
		Subject:  fmt.Sprintf("Project access invitation: %s", ev.ProjectName),
		HTMLBody: body,
	}
}
