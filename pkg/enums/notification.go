package enums

import "fmt"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeListingSubmitted NotificationType = "listing_submitted"
	NotificationTypeListingVerified  NotificationType = "listing_verified"
	NotificationTypeListingRejected  NotificationType = "listing_rejected"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeListingSubmitted,
	NotificationTypeListingVerified,
	NotificationTypeListingRejected,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts the raw string to NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
