package entity

import "time"

type NotificationType string

const (
	NotificationAlertMatch NotificationType = "alert_match"
	NotificationMessage    NotificationType = "message"
	NotificationFavorite   NotificationType = "favorite"
	NotificationSold       NotificationType = "sold"
	NotificationSystem     NotificationType = "system"
)

// Notification is what the core hands to the delivery sink. For alert
// matches, the (SavedSearchID, ListingID) pair doubles as the deduplication
// key: at most one alert-match notification is ever recorded per pair.
type Notification struct {
	ID            string
	UserID        string
	Type          NotificationType
	Title         string
	Payload       map[string]string
	SavedSearchID string
	ListingID     string
	// EmailSent flips once the email sink accepts the alert. A sweep retry
	// re-sends while it is false, even when the record itself already
	// exists.
	EmailSent bool
	IsRead    bool
	CreatedAt time.Time
}
