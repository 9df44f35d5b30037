package subscription

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"opcpub/internal/addrspace"
	"opcpub/internal/ua"
)

// maxPendingPublishRequests caps the publish request credit a session can
// accumulate. Publish calls beyond the cap are accepted but not counted.
const maxPendingPublishRequests = 100

// recentEventIDCacheSize bounds the cache of recently issued event ids.
const recentEventIDCacheSize = 256

// Registry owns the active subscriptions and the per-session publish
// request credits. It is the single entry point the session layer and the
// event publishers call into.
//
// The registry lock is independent of the per-subscription locks; whenever
// both are needed the order is registry first, subscription second.
type Registry struct {
	mu sync.RWMutex

	lastSubID uint32
	subs      map[uint32]*Subscription
	credits   map[ua.NodeID]uint32

	source   addrspace.Source
	eventIDs *lru.Cache[string, struct{}]
	logger   zerolog.Logger
}

// NewRegistry creates a registry reading values from the given source.
func NewRegistry(source addrspace.Source, logger zerolog.Logger) *Registry {
	// The cache size is a positive constant, so this cannot fail.
	eventIDs, _ := lru.New[string, struct{}](recentEventIDCacheSize)
	return &Registry{
		subs:     make(map[uint32]*Subscription),
		credits:  make(map[ua.NodeID]uint32),
		source:   source,
		eventIDs: eventIDs,
		logger:   logger.With().Str("component", "subscription-registry").Logger(),
	}
}

// CreateSubscription allocates the next subscription id, builds the revised
// parameters and starts the publish timer. Requested values are accepted as
// revised; no server-side clamping is applied.
func (r *Registry) CreateSubscription(req ua.CreateSubscriptionRequest, callback PublishCallback) ua.SubscriptionData {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSubID++
	data := ua.SubscriptionData{
		SubscriptionID:            r.lastSubID,
		RevisedPublishingInterval: req.RequestedPublishingInterval,
		RevisedLifetimeCount:      req.RequestedLifetimeCount,
		RevisedMaxKeepAliveCount:  req.RequestedMaxKeepAliveCount,
	}

	sub := newSubscription(data, req.SessionToken, r.source, r, callback, r.logger)
	sub.Start()
	r.subs[data.SubscriptionID] = sub

	r.logger.Info().
		Uint32("subscriptionID", data.SubscriptionID).
		Dur("publishingInterval", data.RevisedPublishingInterval).
		Uint32("lifetimeCount", data.RevisedLifetimeCount).
		Uint32("maxKeepAliveCount", data.RevisedMaxKeepAliveCount).
		Msg("subscription created")
	return data
}

// DeleteSubscriptions stops and removes each named subscription, returning
// a status per id. Unknown ids yield BadSubscriptionIdInvalid.
func (r *Registry) DeleteSubscriptions(ids []uint32) []ua.StatusCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]ua.StatusCode, 0, len(ids))
	for _, id := range ids {
		sub, ok := r.subs[id]
		if !ok {
			r.logger.Warn().Uint32("subscriptionID", id).Msg("delete for unknown subscription")
			results = append(results, ua.BadSubscriptionIDInvalid)
			continue
		}
		sub.Stop()
		delete(r.subs, id)
		r.logger.Info().Uint32("subscriptionID", id).Msg("subscription deleted")
		results = append(results, ua.Good)
	}
	return results
}

// DeleteAll removes every subscription. Used on session cleanup and server
// shutdown.
func (r *Registry) DeleteAll() {
	r.mu.RLock()
	ids := make([]uint32, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	if len(ids) > 0 {
		r.DeleteSubscriptions(ids)
	}
}

// CreateMonitoredItems delegates each request to the subscription. An
// unknown subscription yields BadSubscriptionIdInvalid for every requested
// item.
func (r *Registry) CreateMonitoredItems(subID uint32, reqs []ua.MonitoredItemCreateRequest) []ua.MonitoredItemCreateResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]ua.MonitoredItemCreateResult, 0, len(reqs))
	sub, ok := r.subs[subID]
	if !ok {
		for range reqs {
			results = append(results, ua.MonitoredItemCreateResult{Status: ua.BadSubscriptionIDInvalid})
		}
		return results
	}
	for _, req := range reqs {
		results = append(results, sub.CreateMonitoredItem(req))
	}
	return results
}

// DeleteMonitoredItems removes items under a subscription, one status per
// id. An unknown subscription yields BadSubscriptionIdInvalid for every id.
func (r *Registry) DeleteMonitoredItems(subID uint32, ids []uint32) []ua.StatusCode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[subID]
	if !ok {
		results := make([]ua.StatusCode, len(ids))
		for i := range results {
			results[i] = ua.BadSubscriptionIDInvalid
		}
		return results
	}
	return sub.DeleteMonitoredItems(ids)
}

// Publish credits the session with one more outstanding publish request and
// applies the acknowledgments. Acknowledgments naming unknown subscriptions
// are ignored.
func (r *Registry) Publish(session ua.NodeID, acks []ua.SubscriptionAcknowledgement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.credits[session] < maxPendingPublishRequests {
		r.credits[session]++
	}

	for _, ack := range acks {
		if sub, ok := r.subs[ack.SubscriptionID]; ok {
			sub.Acknowledge(ack.SequenceNumber)
		}
	}
}

// Republish returns the retained result for (subscription, sequence number).
func (r *Registry) Republish(subID uint32, seqNum uint32) ua.RepublishResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[subID]
	if !ok {
		return ua.RepublishResponse{Status: ua.BadSubscriptionIDInvalid}
	}
	return sub.Republish(seqNum)
}

// TriggerEvent fans an event out to every live subscription. Events arriving
// without an id get a generated one; a fresh id per trigger lets clients
// tell repeated triggers apart.
func (r *Registry) TriggerEvent(node ua.NodeID, event ua.Event) {
	if len(event.EventID) == 0 {
		event.EventID = r.generateEventID()
	}

	r.mu.RLock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	for _, sub := range subs {
		sub.OnEvent(node, event)
	}
}

// PopCredit consumes one publish request credit for the session. This is
// the single gate a subscription passes before emitting. Returns false
// without mutation when the session is unknown or out of credit.
func (r *Registry) PopCredit(session ua.NodeID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.credits[session]
	if !ok {
		r.logger.Warn().Str("session", string(session)).Msg("publish credit requested for unknown session")
		return false
	}
	if n == 0 {
		r.logger.Debug().Str("session", string(session)).Msg("no outstanding publish request for session")
		return false
	}
	r.credits[session] = n - 1
	return true
}

// Count returns the number of live subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// generateEventID makes a best-effort unique event id. The cache of
// recently issued ids catches the rare repeat; uniqueness is not a security
// property.
func (r *Registry) generateEventID() []byte {
	var id uuid.UUID
	for i := 0; i < 3; i++ {
		id = uuid.New()
		if !r.eventIDs.Contains(id.String()) {
			break
		}
	}
	r.eventIDs.Add(id.String(), struct{}{})
	return id[:]
}
