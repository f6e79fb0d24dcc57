/*
Package observability provides tools for monitoring the manipulation node.

Metrics turns the dispatcher's lifecycle hooks into Prometheus series, and
Tap fans published notifications out to in-process listeners (the HTTP event
stream, terminal watchers).
*/
package observability
