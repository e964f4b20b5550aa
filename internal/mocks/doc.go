// Package mocks provides hand-written test doubles shared across packages.
//
// Mocks expose function fields that override their default behavior:
//
//	svc := &mocks.MockTaskLifecycleService{
//	    TransitionFn: func(ctx context.Context, op string, taskID, actorID uuid.UUID) (*domain.Task, error) {
//	        return nil, domain.NewIllegalTransitionError(domain.StatusReview, domain.StatusInProgress)
//	    },
//	}
//
// MockTaskStore is also a working in-memory store: its conditional status
// update compares and writes under a mutex, so concurrency tests exercise
// the same lost-race behavior as the Postgres store.
package mocks
