package domain

import (
	"fmt"
	"strings"
)

// NotificationStatus is the payment outcome reported by a gateway
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationCompleted NotificationStatus = "completed"
	NotificationFailed    NotificationStatus = "failed"
)

// PaymentStatus maps the reported status onto the local payment status
func (s NotificationStatus) PaymentStatus() PaymentStatus {
	switch s {
	case NotificationCompleted:
		return PaymentCompleted
	case NotificationFailed:
		return PaymentFailed
	default:
		return PaymentPending
	}
}

// Notification is a gateway settlement report decoded at the adapter boundary.
// Gateways deliver these at least once and in any order.
type Notification struct {
	GatewayTransactionID string
	// Reference is the local payment reference when the gateway echoes it back
	Reference string
	Status    NotificationStatus
	// Payload is the raw gateway body kept for forensic replay
	Payload []byte
	// Source names the intake (stripe, intasend, simulated, amqp)
	Source string
}

// Key identifies a notification for deduplication
func (n Notification) Key() string {
	id := n.GatewayTransactionID
	if id == "" {
		id = "ref:" + n.Reference
	}
	return id + "|" + string(n.Status)
}

// Validate checks that the notification can be matched to a payment
func (n Notification) Validate() error {
	if n.GatewayTransactionID == "" && n.Reference == "" {
		return fmt.Errorf("notification: transaction id or reference is required")
	}
	switch n.Status {
	case NotificationPending, NotificationCompleted, NotificationFailed:
		return nil
	default:
		return fmt.Errorf("notification: unknown status %q", n.Status)
	}
}

// ParseNotificationStatus maps gateway status vocabularies onto NotificationStatus
func ParseNotificationStatus(raw string) (NotificationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "succeeded", "success", "paid", "successful":
		return NotificationCompleted, nil
	case "failed", "failure", "canceled", "cancelled", "declined", "expired":
		return NotificationFailed, nil
	case "pending", "processing", "requires_action", "requires_payment_method",
		"requires_confirmation", "requires_capture", "in_progress", "retry":
		return NotificationPending, nil
	default:
		return "", fmt.Errorf("notification: unsupported gateway status %q", raw)
	}
}
