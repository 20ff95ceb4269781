/*
Package telemetry emits usage signals from the gateway.

The Notifier reports the first entry created for each model. Delivery is
pluggable through Sender; LogSender writes events to a zap logger.
*/
package telemetry
