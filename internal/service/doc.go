// Package service contains the task lifecycle use cases.
//
// TransitionGuard is the single writer of a task's status: it validates every
// requested edge against the domain transition table, performs the write as
// a conditional update, and records one audit event per applied transition.
// It also holds the checks that keep status out of task creation and generic
// field updates.
//
// TaskLifecycleService layers the named lifecycle operations (start,
// submit for review, approve, reject, complete, reopen) and the generic,
// batch, create, update and read operations on top of the guard. Batch
// updates run on a bounded alitto/pond worker pool.
//
// Every store call runs under the configured write timeout; a call that
// exceeds it fails with ErrPersistenceTimeout.
package service
