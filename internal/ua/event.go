package ua

import "time"

// Event is an event notification as raised by a node's event notifier.
// The named fields cover the base event type; Fields carries values for
// any additional browse paths a filter may select.
type Event struct {
	EventID     []byte
	EventType   NodeID
	SourceNode  NodeID
	SourceName  string
	Message     string
	Severity    uint16
	Time        time.Time
	ReceiveTime time.Time
	LocalTime   time.Time

	Fields map[string]Variant
}

// AttributeValue returns the event value for a direct attribute select
// (a select clause with no browse path).
func (e *Event) AttributeValue(attr AttributeID) Variant {
	switch attr {
	case AttrNodeID:
		return e.SourceNode
	case AttrDisplayName:
		return e.SourceName
	case AttrDescription:
		return e.Message
	default:
		return nil
	}
}

// Field resolves a browse path against the free-form field map. The path
// elements are joined with "/", matching how publishers register them.
func (e *Event) Field(path []QualifiedName) Variant {
	if len(e.Fields) == 0 {
		return nil
	}
	key := ""
	for i, q := range path {
		if i > 0 {
			key += "/"
		}
		key += q.Name
	}
	return e.Fields[key]
}
