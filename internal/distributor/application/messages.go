package application

import (
	"fmt"
	"strings"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
)

func credentialsResetMessage(account *domain.Account, password, portalURL string) (notificationdomain.Message, bool) {
	if !domain.Deliverable(account.Email) {
		return notificationdomain.Message{}, false
	}
	var b strings.Builder
	b.WriteString("Your distributor portal credentials have been reset.\n\n")
	fmt.Fprintf(&b, "Username: %s\nPassword: %s\n", account.Username, password)
	if portalURL != "" {
		fmt.Fprintf(&b, "\nSign in at %s and change your password.\n", portalURL)
	}
	return notificationdomain.Message{
		Channel:   notificationdomain.ChannelEmail,
		Recipient: account.Email,
		Subject:   "Your distributor credentials were reset",
		Body:      b.String(),
		Reference: "account:" + account.ID,
	}, true
}
