// Package api exposes the task lifecycle over HTTP. Handlers translate
// requests into TaskLifecycleService calls and map domain errors to status
// codes and client-safe messages.
package api
