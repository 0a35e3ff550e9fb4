package domain

// DeliveryCommand is published to the broker by the kafka sender and consumed by the
// notifier process.
type DeliveryCommand struct {
	NotificationID string  `json:"notification_id"`
	Channel        Channel `json:"channel"`
	Recipient      string  `json:"recipient"`
	Subject        string  `json:"subject"`
	Body           string  `json:"body"`
	Reference      string  `json:"reference"`
}

// CommandFor builds the broker command of n.
func CommandFor(n *Notification) DeliveryCommand {
	return DeliveryCommand{
		NotificationID: n.ID,
		Channel:        n.Channel,
		Recipient:      n.Recipient,
		Subject:        n.Subject,
		Body:           n.Body,
		Reference:      n.Reference,
	}
}
