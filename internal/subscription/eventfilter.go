package subscription

import "opcpub/internal/ua"

// wellKnownEventFields maps the base event type's browse names to their
// accessors. Select clauses whose first path element names one of these are
// answered directly instead of going through the generic field lookup.
var wellKnownEventFields = map[string]func(*ua.Event) ua.Variant{
	"EventId":     func(e *ua.Event) ua.Variant { return e.EventID },
	"EventType":   func(e *ua.Event) ua.Variant { return e.EventType },
	"SourceNode":  func(e *ua.Event) ua.Variant { return e.SourceNode },
	"SourceName":  func(e *ua.Event) ua.Variant { return e.SourceName },
	"Message":     func(e *ua.Event) ua.Variant { return e.Message },
	"Severity":    func(e *ua.Event) ua.Variant { return e.Severity },
	"LocalTime":   func(e *ua.Event) ua.Variant { return e.LocalTime },
	"ReceiveTime": func(e *ua.Event) ua.Variant { return e.ReceiveTime },
	"Time":        func(e *ua.Event) ua.Variant { return e.Time },
}

// eventFields evaluates the filter's select clauses against an event.
// The output order matches the select clause order; clients map fields back
// to their clauses by position, so the order is part of the wire contract.
func eventFields(filter ua.EventFilter, event *ua.Event) []ua.Variant {
	fields := make([]ua.Variant, 0, len(filter.SelectClauses))
	for _, clause := range filter.SelectClauses {
		if len(clause.BrowsePath) == 0 {
			fields = append(fields, event.AttributeValue(clause.AttributeID))
			continue
		}
		if first := clause.BrowsePath[0]; first.NamespaceIndex == 0 {
			if get, ok := wellKnownEventFields[first.Name]; ok {
				fields = append(fields, get(event))
				continue
			}
		}
		fields = append(fields, event.Field(clause.BrowsePath))
	}
	return fields
}
