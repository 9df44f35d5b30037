package ua

import "time"

// NodeID identifies a node in the address space. Session authentication
// tokens are node ids as well, so the type doubles as the session token.
type NodeID string

// AttributeID identifies a node attribute.
type AttributeID uint32

const (
	AttrNodeID        AttributeID = 1
	AttrNodeClass     AttributeID = 2
	AttrBrowseName    AttributeID = 3
	AttrDisplayName   AttributeID = 4
	AttrDescription   AttributeID = 5
	AttrEventNotifier AttributeID = 12
	AttrValue         AttributeID = 13
)

// Variant holds any attribute or event field value.
type Variant = any

// DataValue is an attribute value with its quality and timestamps.
type DataValue struct {
	Value           Variant
	Status          StatusCode
	SourceTimestamp time.Time
	ServerTimestamp time.Time
}

// QualifiedName is a namespace-qualified browse name.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// MonitoringMode controls whether a monitored item samples and reports.
type MonitoringMode uint32

const (
	MonitoringDisabled  MonitoringMode = 0
	MonitoringSampling  MonitoringMode = 1
	MonitoringReporting MonitoringMode = 2
)
