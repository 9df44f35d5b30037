package ua

import "time"

// SimpleAttributeOperand selects one event field: either a direct attribute
// (empty browse path) or a browse path below the event type.
type SimpleAttributeOperand struct {
	BrowsePath  []QualifiedName
	AttributeID AttributeID
}

// EventFilter holds the select clauses applied to events of a monitored item.
// The order of SelectClauses determines the order of the reported fields.
type EventFilter struct {
	SelectClauses []SimpleAttributeOperand
}

// ReadValueID names the node attribute a monitored item watches.
type ReadValueID struct {
	Node      NodeID
	Attribute AttributeID
}

// MonitoringParameters are the client-requested sampling settings.
type MonitoringParameters struct {
	ClientHandle     uint32
	SamplingInterval time.Duration
	QueueSize        uint32
	Filter           EventFilter
}

// MonitoredItemCreateRequest asks for one item under a subscription.
type MonitoredItemCreateRequest struct {
	ItemToMonitor ReadValueID
	Mode          MonitoringMode
	Parameters    MonitoringParameters
}

// MonitoredItemCreateResult reports the outcome for one requested item.
type MonitoredItemCreateResult struct {
	Status                  StatusCode
	MonitoredItemID         uint32
	RevisedSamplingInterval time.Duration
	RevisedQueueSize        uint32
	Filter                  EventFilter
}

// MonitoredItemNotification is one triggered data change.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

// DataChangeNotification batches the data changes of one publish cycle.
type DataChangeNotification struct {
	Monitored []MonitoredItemNotification
}

// EventFieldList is one triggered event, reduced to its selected fields.
// EventFields is ordered exactly as the filter's select clauses.
type EventFieldList struct {
	ClientHandle uint32
	EventFields  []Variant
}

// EventNotificationList batches the events of one publish cycle.
type EventNotificationList struct {
	Events []EventFieldList
}

// NotificationMessage carries at most one data-change batch and at most one
// event batch per publish cycle.
type NotificationMessage struct {
	SequenceNumber uint32
	PublishTime    time.Time
	DataChange     *DataChangeNotification
	Events         *EventNotificationList
}

// PublishResult is one assembled response to an outstanding publish request.
type PublishResult struct {
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	Message                  NotificationMessage
	Results                  []StatusCode
}

// SubscriptionAcknowledgement confirms receipt of one notification message.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

// CreateSubscriptionRequest carries the client-requested subscription
// parameters and the owning session's token.
type CreateSubscriptionRequest struct {
	SessionToken                NodeID
	RequestedPublishingInterval time.Duration
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
}

// SubscriptionData is the server-assigned identity and revised parameters.
type SubscriptionData struct {
	SubscriptionID            uint32
	RevisedPublishingInterval time.Duration
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

// RepublishResponse returns a retained notification message, or the status
// explaining why it is not available.
type RepublishResponse struct {
	Status StatusCode
	Result PublishResult
}
