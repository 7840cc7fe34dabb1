/*
Package observability provides tools for monitoring the dialogue engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines,
and composes several hook sets into one.
*/
package observability
