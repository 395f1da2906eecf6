package events

import (
	"fmt"

	"github.com/travigo/trainrac/pkg/rail"
)

// GetNotificationData renders passenger-facing events, returning false for the rest
func GetNotificationData(e rail.Event) (rail.Notification, bool) {
	if e.PNR == "" {
		return rail.Notification{}, false
	}

	notification := rail.Notification{PNR: e.PNR}

	switch e.Type {
	case rail.EventTypePassengerBoarded:
		notification.Type = rail.NotificationTypeBoarding
		notification.Title = "Boarding confirmed"
		notification.Message = fmt.Sprintf("You have been marked as boarded at %s. Have a pleasant journey.", e.StationCode)
	case rail.EventTypeNoShowMarked:
		notification.Type = rail.NotificationTypeNoShow
		notification.Title = "Marked as not boarded"
		notification.Message = fmt.Sprintf("You were marked as a no-show at %s and your berth has been released. Contact the TTE if this is a mistake.", e.StationCode)
	case rail.EventTypeUpgradeOffered:
		notification.Type = rail.NotificationTypeUpgradeOffered
		notification.Title = "Berth upgrade available"
		notification.Message = fmt.Sprintf("Berth %s (%s) is available for you from %s. Accept the offer before it expires.",
			dataString(e, "berth"), dataString(e, "berthType"), e.StationCode)
	case rail.EventTypeRACUpgraded:
		notification.Type = rail.NotificationTypeUpgradeApproved
		notification.Title = "Berth confirmed"
		notification.Message = fmt.Sprintf("Your RAC booking is now confirmed on berth %s.", dataString(e, "to"))
	default:
		return rail.Notification{}, false
	}

	return notification, true
}

func dataString(e rail.Event, key string) string {
	if e.Data == nil || e.Data[key] == nil {
		return "-"
	}
	return fmt.Sprint(e.Data[key])
}
