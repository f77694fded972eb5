package fanout

import (
	"fmt"

	"lostfound/internal/domain/request"
)

type message struct {
	title string
	body  string
}

func notificationFor(e Event) message {
	name := e.itemName()
	reason := e.Request.StatusReason

	switch e.RequestKind {
	case request.KindFound:
		switch e.Transition {
		case TransitionApproved:
			return message{"Found report approved", fmt.Sprintf("Your report for the lost item %q was approved. %s", name, reason)}
		case TransitionRejected:
			return message{"Found report rejected", fmt.Sprintf("Your report for the lost item %q was not accepted. %s", name, reason)}
		case TransitionRetrieved:
			return message{"Item handed over", fmt.Sprintf("The item %q you found has been handed over. Thank you for helping!", name)}
		}
	default:
		switch e.Transition {
		case TransitionApproved:
			return message{"Claim approved", fmt.Sprintf("Your claim for %q was approved. %s", name, reason)}
		case TransitionRejected:
			return message{"Claim rejected", fmt.Sprintf("Your claim for %q was not accepted. %s", name, reason)}
		case TransitionRetrieved:
			return message{"Item retrieved", fmt.Sprintf("You have collected %q. Thank you for using Campus Lost & Found.", name)}
		}
	}
	return message{"Request updated", fmt.Sprintf("Your request for %q is now %s.", name, e.Request.Status)}
}

func activityDescription(e Event) string {
	label := "claim"
	if e.RequestKind == request.KindFound {
		label = "found report"
	}
	switch e.Transition {
	case TransitionRetrieved:
		return fmt.Sprintf("%q was retrieved by %s", e.itemName(), e.Request.RequesterName)
	default:
		return fmt.Sprintf("%s's %s for %q was %s", e.Request.RequesterName, label, e.itemName(), e.Transition)
	}
}
