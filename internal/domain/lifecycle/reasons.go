package lifecycle

import (
	"fmt"
	"strings"

	"lostfound/internal/domain/item"
	"lostfound/internal/domain/request"
)

// RejectionReasons is the vocabulary offered to admins. Free text is also accepted.
var RejectionReasons = []string{
	"Insufficient proof of ownership",
	"Description does not match the item",
	"Item already claimed by another user",
	"Duplicate request",
	"Incomplete or invalid contact information",
	"Item could not be verified by the office",
}

const reapplyNotice = "You may submit a new request with additional details or proof of ownership."

// Code is the claim/intake code shown to the requester: the first six
// characters of the request id, upper-cased.
func Code(requestID string) string {
	if len(requestID) > 6 {
		requestID = requestID[:6]
	}
	return strings.ToUpper(requestID)
}

type itemInfo struct {
	name     string
	landmark string
}

func infoOf(it *item.Item) itemInfo {
	if it == nil {
		return itemInfo{name: item.UnknownItemName, landmark: item.UnknownLandmark}
	}
	landmark := it.Landmark
	if strings.TrimSpace(landmark) == "" {
		landmark = item.UnknownLandmark
	}
	return itemInfo{name: it.Name, landmark: landmark}
}

func (e *Engine) approvalReason(kind request.Kind, requestID string, it *item.Item) string {
	info := infoOf(it)
	code := Code(requestID)

	if kind == request.KindFound {
		return fmt.Sprintf(
			"Thank you for reporting that you found %q (last seen at %s). Intake code: %s. "+
				"Please bring the item to the %s during office hours (%s) and present your intake code.",
			info.name, info.landmark, code, e.cfg.OfficeLocation, e.cfg.OfficeHours,
		)
	}
	return fmt.Sprintf(
		"Your claim for %q (found at %s) has been approved. Claim code: %s. "+
			"Please collect it at the %s during office hours (%s). Bring a valid school ID and present your claim code.",
		info.name, info.landmark, code, e.cfg.OfficeLocation, e.cfg.OfficeHours,
	)
}

func rejectionReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if !strings.HasSuffix(reason, ".") {
		reason += "."
	}
	return reason + " " + reapplyNotice
}
