package subscription

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"opcpub/internal/addrspace"
	"opcpub/internal/ua"
)

// PublishCallback delivers one assembled result to the session/transport
// layer, which matches it to the client's outstanding publish request. It is
// invoked at most once per subscription per publishing interval, never
// concurrently for the same subscription.
type PublishCallback func(ua.PublishResult)

// creditSource gates emissions on the owning session's outstanding publish
// requests. Implemented by Registry; an interface so tests can supply their
// own accounting.
type creditSource interface {
	PopCredit(session ua.NodeID) bool
}

// monitoredItem is one watched attribute or event notifier. Items with a
// zero callbackHandle are event items; they have no source registration.
type monitoredItem struct {
	id             uint32
	clientHandle   uint32
	mode           ua.MonitoringMode
	callbackHandle addrspace.Handle
	filter         ua.EventFilter
}

// Subscription owns a periodic publish timer, the monitored items created
// under it, the triggered-but-not-yet-published queues, and the log of
// results awaiting acknowledgment.
//
// All mutable state is guarded by mu. The timer callback never holds mu
// while popping a credit or delivering a result, keeping the lock order
// registry-then-subscription everywhere.
type Subscription struct {
	mu sync.RWMutex

	id      uint32
	session ua.NodeID

	interval          time.Duration
	lifetimeCount     uint32
	maxKeepAliveCount uint32

	keepAliveCount uint32
	seqNum         uint32
	startup        bool
	stopped        bool

	lastItemID      uint32
	items           map[uint32]*monitoredItem
	monitoredEvents map[ua.NodeID]uint32

	triggeredData   []ua.MonitoredItemNotification
	triggeredEvents []ua.EventFieldList
	notAcked        []ua.PublishResult

	timer    *time.Timer
	source   addrspace.Source
	credits  creditSource
	callback PublishCallback
	logger   zerolog.Logger
}

func newSubscription(data ua.SubscriptionData, session ua.NodeID, source addrspace.Source, credits creditSource, callback PublishCallback, logger zerolog.Logger) *Subscription {
	return &Subscription{
		id:                data.SubscriptionID,
		session:           session,
		interval:          data.RevisedPublishingInterval,
		lifetimeCount:     data.RevisedLifetimeCount,
		maxKeepAliveCount: data.RevisedMaxKeepAliveCount,
		seqNum:            1,
		startup:           true,
		items:             make(map[uint32]*monitoredItem),
		monitoredEvents:   make(map[ua.NodeID]uint32),
		source:            source,
		credits:           credits,
		callback:          callback,
		logger:            logger.With().Str("component", "subscription").Uint32("subscriptionID", data.SubscriptionID).Logger(),
	}
}

// ID returns the server-assigned subscription id.
func (s *Subscription) ID() uint32 {
	return s.id
}

// Start arms the publish timer. The first tick fires one publishing
// interval from now.
func (s *Subscription) Start() {
	s.mu.Lock()
	if s.timer == nil && !s.stopped {
		s.timer = time.AfterFunc(s.interval, s.tick)
	}
	s.mu.Unlock()
}

// Stop cancels the timer and releases every monitored item, including their
// source registrations. Idempotent. The timer closure keeps the instance
// alive, so a tick that already fired finds the stopped flag and returns
// without re-arming.
func (s *Subscription) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	ids := make([]uint32, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.DeleteMonitoredItems(ids)
	}
}

// tick runs once per publishing interval. It decides whether a notification
// is due, pops a publish credit for the owning session if so, and delivers
// exactly one result. The timer is re-armed unless the subscription stopped
// or outlived its lifetime.
func (s *Subscription) tick() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.keepAliveCount > s.lifetimeCount {
		s.stopped = true
		keepAlive := s.keepAliveCount
		s.mu.Unlock()
		s.logger.Info().Uint32("keepAliveCount", keepAlive).Uint32("lifetimeCount", s.lifetimeCount).Msg("subscription lifetime expired")
		return
	}
	due := s.publishDueLocked()
	s.mu.Unlock()

	if due && s.credits.PopCredit(s.session) {
		result := s.popPublishResult()
		if s.callback != nil {
			s.callback(result)
		} else {
			s.logger.Debug().Msg("no delivery callback for subscription")
		}
	}

	s.mu.Lock()
	if !s.stopped && s.timer != nil {
		s.timer.Reset(s.interval)
	}
	s.mu.Unlock()
}

// publishDueLocked reports whether this interval should emit. When nothing
// is due the keep-alive counter advances; once it exceeds the revised
// max-keep-alive count an empty notification becomes due.
func (s *Subscription) publishDueLocked() bool {
	if s.startup || len(s.triggeredData) > 0 || len(s.triggeredEvents) > 0 {
		return true
	}
	if s.keepAliveCount > s.maxKeepAliveCount {
		s.logger.Debug().Uint32("keepAliveCount", s.keepAliveCount).Msg("keep-alive notification due")
		return true
	}
	s.keepAliveCount++
	return false
}

// popPublishResult drains both trigger queues into one notification message,
// stamps the next sequence number and appends the result to the
// not-acknowledged log.
func (s *Subscription) popPublishResult() ua.PublishResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := ua.PublishResult{SubscriptionID: s.id}
	result.Message.PublishTime = time.Now()

	if len(s.triggeredData) > 0 {
		result.Message.DataChange = &ua.DataChangeNotification{Monitored: s.triggeredData}
		s.triggeredData = nil
		result.Results = append(result.Results, ua.Good)
	}
	if len(s.triggeredEvents) > 0 {
		result.Message.Events = &ua.EventNotificationList{Events: s.triggeredEvents}
		s.triggeredEvents = nil
		result.Results = append(result.Results, ua.Good)
	}

	s.keepAliveCount = 0
	s.startup = false

	result.Message.SequenceNumber = s.seqNum
	s.seqNum++
	for _, prev := range s.notAcked {
		result.AvailableSequenceNumbers = append(result.AvailableSequenceNumbers, prev.Message.SequenceNumber)
	}
	s.notAcked = append(s.notAcked, result)
	return result
}

// CreateMonitoredItem registers one item. Items on the event-notifier
// attribute join the event index; all others register a data-change callback
// with the source and get a forced first-value trigger, so the client sees
// the current value without waiting for a change.
func (s *Subscription) CreateMonitoredItem(req ua.MonitoredItemCreateRequest) ua.MonitoredItemCreateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastItemID++
	result := ua.MonitoredItemCreateResult{MonitoredItemID: s.lastItemID}

	var cbHandle addrspace.Handle
	if req.ItemToMonitor.Attribute == ua.AttrEventNotifier {
		s.monitoredEvents[req.ItemToMonitor.Node] = result.MonitoredItemID
	} else {
		itemID := result.MonitoredItemID
		cbHandle = s.source.RegisterDataChangeCallback(req.ItemToMonitor.Node, req.ItemToMonitor.Attribute,
			func(node ua.NodeID, attr ua.AttributeID, value ua.DataValue) {
				s.OnDataChange(itemID, value)
			})
		if cbHandle == 0 {
			s.lastItemID--
			s.logger.Warn().Str("node", string(req.ItemToMonitor.Node)).Uint32("attr", uint32(req.ItemToMonitor.Attribute)).Msg("source refused data change registration")
			result.Status = ua.BadNodeAttributesInvalid
			return result
		}
	}

	result.Status = ua.Good
	// The server forces its own sampling rate.
	result.RevisedSamplingInterval = s.interval
	result.RevisedQueueSize = req.Parameters.QueueSize
	result.Filter = req.Parameters.Filter

	item := &monitoredItem{
		id:             result.MonitoredItemID,
		clientHandle:   req.Parameters.ClientHandle,
		mode:           req.Mode,
		callbackHandle: cbHandle,
		filter:         req.Parameters.Filter,
	}
	s.items[item.id] = item

	if cbHandle != 0 {
		value := s.source.ReadAttribute(req.ItemToMonitor.Node, req.ItemToMonitor.Attribute)
		s.triggeredData = append(s.triggeredData, ua.MonitoredItemNotification{ClientHandle: item.clientHandle, Value: value})
	}

	s.logger.Debug().Uint32("monitoredItemID", item.id).Uint32("clientHandle", item.clientHandle).Msg("monitored item created")
	return result
}

// DeleteMonitoredItems removes items by id and returns a status per id.
// Unknown ids yield BadMonitoredItemIdInvalid without affecting the rest of
// the batch. Source registrations are released before the item is erased.
func (s *Subscription) DeleteMonitoredItems(ids []uint32) []ua.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]ua.StatusCode, 0, len(ids))
	for _, id := range ids {
		for node, itemID := range s.monitoredEvents {
			if itemID == id {
				delete(s.monitoredEvents, node)
				break
			}
		}

		item, ok := s.items[id]
		if !ok {
			results = append(results, ua.BadMonitoredItemIDInvalid)
			continue
		}
		if item.callbackHandle != 0 {
			s.source.UnregisterDataChangeCallback(item.callbackHandle)
		}
		delete(s.items, id)
		results = append(results, ua.Good)
	}
	return results
}

// OnDataChange enqueues a triggered data change for the given item. Unknown
// ids are expected: a source callback may still be in flight when its item
// is deleted.
func (s *Subscription) OnDataChange(itemID uint32, value ua.DataValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		s.logger.Debug().Uint32("monitoredItemID", itemID).Msg("data change for unknown monitored item")
		return
	}
	s.triggeredData = append(s.triggeredData, ua.MonitoredItemNotification{ClientHandle: item.clientHandle, Value: value})
}

// OnEvent enqueues an event for the item monitoring the node's event
// notifier, reduced to the fields its filter selects. Nodes without an
// event item under this subscription are ignored.
func (s *Subscription) OnEvent(node ua.NodeID, event ua.Event) {
	s.mu.RLock()
	itemID, ok := s.monitoredEvents[node]
	s.mu.RUnlock()
	if !ok {
		return
	}
	s.enqueueEvent(itemID, event)
}

func (s *Subscription) enqueueEvent(itemID uint32, event ua.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		s.logger.Debug().Uint32("monitoredItemID", itemID).Msg("event for deleted monitored item")
		return
	}
	s.triggeredEvents = append(s.triggeredEvents, ua.EventFieldList{
		ClientHandle: item.clientHandle,
		EventFields:  eventFields(item.filter, &event),
	})
}

// Acknowledge removes the result with the given sequence number from the
// not-acknowledged log. Unmatched sequence numbers are a silent no-op.
func (s *Subscription) Acknowledge(seqNum uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, res := range s.notAcked {
		if res.Message.SequenceNumber == seqNum {
			s.notAcked = append(s.notAcked[:i], s.notAcked[i+1:]...)
			return
		}
	}
}

// Republish returns the retained result for a sequence number, or
// BadMessageNotAvailable once it has been acknowledged or was never sent.
func (s *Subscription) Republish(seqNum uint32) ua.RepublishResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, res := range s.notAcked {
		if res.Message.SequenceNumber == seqNum {
			return ua.RepublishResponse{Status: ua.Good, Result: res}
		}
	}
	return ua.RepublishResponse{Status: ua.BadMessageNotAvailable}
}
