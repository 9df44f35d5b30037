package addrspace

import "opcpub/internal/ua"

// Handle identifies a data-change callback registration. Zero means the
// registration failed (or was never made).
type Handle uint32

// DataChangeHandler is invoked when a watched attribute's value changes.
// Implementations of Source may invoke it from any goroutine; handlers must
// be safe to call concurrently with registration and deregistration.
type DataChangeHandler func(node ua.NodeID, attr ua.AttributeID, value ua.DataValue)

// Source is the address-space collaborator the subscription engine reads
// values from and registers change callbacks with.
type Source interface {
	// RegisterDataChangeCallback watches (node, attr). Returns 0 if the
	// node or attribute does not exist.
	RegisterDataChangeCallback(node ua.NodeID, attr ua.AttributeID, handler DataChangeHandler) Handle

	// UnregisterDataChangeCallback releases a registration. Unknown or
	// already-released handles are ignored.
	UnregisterDataChangeCallback(h Handle)

	// ReadAttribute returns the current value of (node, attr). A missing
	// node or attribute yields a DataValue with a bad status.
	ReadAttribute(node ua.NodeID, attr ua.AttributeID) ua.DataValue
}
