// Package telemetry is the instrumentation port of the dispatcher: a Sink
// that receives named events with a small payload and never affects the
// request that produced them.
//
// LogSink writes events to an observe.Logger, NATSSink publishes them to
// NATS, Multi fans out, and Safe recovers panics from any of them.
package telemetry
