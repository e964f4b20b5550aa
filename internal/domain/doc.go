// Package domain contains the core business entities, value objects, and
// domain logic of the application. It holds the task status state machine
// and is independent of any specific infrastructure or delivery mechanism.
package domain
