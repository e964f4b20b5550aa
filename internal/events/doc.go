// Package events carries task status audit events from the lifecycle service
// to their sinks.
//
// Services record events through the AuditTrail interface and never learn
// which handlers consume them. InMemoryAuditEmitter fans an event out to its
// handlers synchronously; AuditDispatcher puts a bounded queue and a set of
// worker goroutines in front of an emitter so a slow sink does not hold up
// the request that caused the transition.
package events
