package addrspace

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"opcpub/internal/ua"
)

// registration is one active data-change callback.
type registration struct {
	node    ua.NodeID
	attr    ua.AttributeID
	handler DataChangeHandler
}

// SimSpace is an in-memory address space. It backs the demo binary and the
// engine tests; a production deployment would put a real node store behind
// the Source interface instead.
type SimSpace struct {
	mu            sync.RWMutex
	nodes         map[ua.NodeID]map[ua.AttributeID]ua.DataValue
	registrations map[Handle]*registration
	lastHandle    Handle
	logger        zerolog.Logger
}

// NewSimSpace creates an empty in-memory address space.
func NewSimSpace(logger zerolog.Logger) *SimSpace {
	return &SimSpace{
		nodes:         make(map[ua.NodeID]map[ua.AttributeID]ua.DataValue),
		registrations: make(map[Handle]*registration),
		logger:        logger.With().Str("component", "simspace").Logger(),
	}
}

// AddNode creates a node with the given attribute values, replacing any
// existing node with the same id.
func (s *SimSpace) AddNode(node ua.NodeID, attrs map[ua.AttributeID]ua.Variant) {
	now := time.Now()
	values := make(map[ua.AttributeID]ua.DataValue, len(attrs))
	for attr, v := range attrs {
		values[attr] = ua.DataValue{Value: v, Status: ua.Good, SourceTimestamp: now, ServerTimestamp: now}
	}

	s.mu.Lock()
	s.nodes[node] = values
	s.mu.Unlock()
}

// WriteAttribute updates an attribute value and synchronously invokes every
// callback registered for (node, attr). Returns BadNodeIdUnknown or
// BadAttributeIdInvalid when the target does not exist.
func (s *SimSpace) WriteAttribute(node ua.NodeID, attr ua.AttributeID, value ua.Variant) ua.StatusCode {
	now := time.Now()
	dv := ua.DataValue{Value: value, Status: ua.Good, SourceTimestamp: now, ServerTimestamp: now}

	s.mu.Lock()
	attrs, ok := s.nodes[node]
	if !ok {
		s.mu.Unlock()
		return ua.BadNodeIDUnknown
	}
	if _, ok := attrs[attr]; !ok {
		s.mu.Unlock()
		return ua.BadAttributeIDInvalid
	}
	attrs[attr] = dv

	// Snapshot matching handlers so they run without the lock held.
	var handlers []DataChangeHandler
	for _, reg := range s.registrations {
		if reg.node == node && reg.attr == attr {
			handlers = append(handlers, reg.handler)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(node, attr, dv)
	}
	return ua.Good
}

// ReadAttribute implements Source.
func (s *SimSpace) ReadAttribute(node ua.NodeID, attr ua.AttributeID) ua.DataValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.nodes[node]
	if !ok {
		return ua.DataValue{Status: ua.BadNodeIDUnknown}
	}
	dv, ok := attrs[attr]
	if !ok {
		return ua.DataValue{Status: ua.BadAttributeIDInvalid}
	}
	return dv
}

// RegisterDataChangeCallback implements Source. The target attribute must
// exist; otherwise 0 is returned.
func (s *SimSpace) RegisterDataChangeCallback(node ua.NodeID, attr ua.AttributeID, handler DataChangeHandler) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs, ok := s.nodes[node]
	if !ok {
		s.logger.Debug().Str("node", string(node)).Msg("callback registration for unknown node")
		return 0
	}
	if _, ok := attrs[attr]; !ok {
		s.logger.Debug().Str("node", string(node)).Uint32("attr", uint32(attr)).Msg("callback registration for unknown attribute")
		return 0
	}

	s.lastHandle++
	h := s.lastHandle
	s.registrations[h] = &registration{node: node, attr: attr, handler: handler}
	return h
}

// UnregisterDataChangeCallback implements Source. Safe to call more than
// once with the same handle.
func (s *SimSpace) UnregisterDataChangeCallback(h Handle) {
	s.mu.Lock()
	delete(s.registrations, h)
	s.mu.Unlock()
}

// RegistrationCount returns the number of live callback registrations.
func (s *SimSpace) RegistrationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registrations)
}
