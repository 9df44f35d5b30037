package ua

import "fmt"

// StatusCode is the result of a service or per-item operation.
type StatusCode uint32

const (
	// Good - the operation completed successfully.
	Good StatusCode = 0x00000000

	// BadNodeIDUnknown - the node id refers to a node that does not exist.
	BadNodeIDUnknown StatusCode = 0x80340000
	// BadAttributeIDInvalid - the attribute is not supported for the node.
	BadAttributeIDInvalid StatusCode = 0x80350000
	// BadSubscriptionIDInvalid - the subscription id is not valid.
	BadSubscriptionIDInvalid StatusCode = 0x80280000
	// BadMonitoredItemIDInvalid - the monitored item id is not valid.
	BadMonitoredItemIDInvalid StatusCode = 0x80420000
	// BadNodeAttributesInvalid - the node attributes are not valid for the node.
	BadNodeAttributesInvalid StatusCode = 0x80620000
	// BadMessageNotAvailable - the requested notification message is not available.
	BadMessageNotAvailable StatusCode = 0x80790000
)

const severityBad uint32 = 0x80000000

// IsGood returns true if the severity bits are good.
func (c StatusCode) IsGood() bool {
	return uint32(c)&0xC0000000 == 0
}

// IsBad returns true if the severity bits are bad.
func (c StatusCode) IsBad() bool {
	return uint32(c)&0xC0000000 == severityBad
}

func (c StatusCode) String() string {
	switch c {
	case Good:
		return "Good"
	case BadNodeIDUnknown:
		return "BadNodeIdUnknown"
	case BadAttributeIDInvalid:
		return "BadAttributeIdInvalid"
	case BadSubscriptionIDInvalid:
		return "BadSubscriptionIdInvalid"
	case BadMonitoredItemIDInvalid:
		return "BadMonitoredItemIdInvalid"
	case BadNodeAttributesInvalid:
		return "BadNodeAttributesInvalid"
	case BadMessageNotAvailable:
		return "BadMessageNotAvailable"
	default:
		return fmt.Sprintf("StatusCode(0x%08X)", uint32(c))
	}
}
