// Package events provides types and interfaces for observing command
// execution.
//
// The executor reports each completed command exactly once; this package
// fans those completions out to registered handlers without the command
// layer knowing who is listening. Handlers range from in-process observers
// to the AMQP publisher that forwards lifecycle events to a broker.
package events
