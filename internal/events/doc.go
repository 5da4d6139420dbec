// Package events implements the typed pub/sub hub that carries toolgate's
// observable boundary crossings.
//
// Every outbound HTTP call, circuit breaker transition, audit append, and
// compliance violation publishes an Event. The metrics collector and any
// diagnostic consumer subscribe with a type filter and read from a buffered
// channel.
//
// Ordering is per-source FIFO: a single HTTP client publishing
// request → response emits them in that order to every subscriber. Slow
// subscribers drop events instead of backpressuring request handling.
package events
