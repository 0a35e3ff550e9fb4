package application

import (
	"fmt"
	"strings"

	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
)

// decisionMessage builds the email for an approval, rejection or change request.
// It reports false when there is nothing to send or nowhere to send it.
func decisionMessage(r *TransitionResult, portalURL string) (notificationdomain.Message, bool) {
	app := r.Application
	recipient := app.PersonalDetails.Email
	if r.Account != nil {
		recipient = r.Account.Email
	}
	if !distributordomain.Deliverable(recipient) {
		return notificationdomain.Message{}, false
	}

	name := app.PersonalDetails.FullName
	var subject string
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)

	switch app.Status {
	case domain.StatusApproved:
		subject = "Your distributor application has been approved"
		b.WriteString("Your distributor application has been approved.\n")
		if r.Created {
			fmt.Fprintf(&b, "\nUsername: %s\nPassword: %s\n", r.Account.Username, r.Password)
			if portalURL != "" {
				fmt.Fprintf(&b, "\nSign in at %s and change your password.\n", portalURL)
			}
		}
	case domain.StatusRejected:
		subject = "Your distributor application was not approved"
		b.WriteString("We are unable to approve your distributor application at this time.\n")
	case domain.StatusRequiresChanges:
		subject = "Your distributor application needs changes"
		b.WriteString("Your distributor application needs changes before it can be approved.\n")
	default:
		return notificationdomain.Message{}, false
	}
	if app.ReviewNotes != "" {
		fmt.Fprintf(&b, "\nReviewer notes: %s\n", app.ReviewNotes)
	}

	return notificationdomain.Message{
		Channel:   notificationdomain.ChannelEmail,
		Recipient: recipient,
		Subject:   subject,
		Body:      b.String(),
		Reference: "application:" + app.ID,
	}, true
}
