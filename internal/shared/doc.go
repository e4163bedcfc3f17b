// Package shared contains the error taxonomy of the crontab daemon.
//
// # Error Kinds
//
// Errors fall into two groups with different propagation policies:
//
//   - construction-time: ErrInvalidExpression, ErrDuplicateJobName, ErrInvalidJob.
//     They are raised while the registry is built and abort startup (see IsFatal).
//   - execution-time: ErrSpawnFailure, ErrUnknownCommand, ErrHandlerError, ErrTimeout.
//     They are recovered at job granularity and reported as a failed outcome.
//
// Classify with KindOf or the Is* predicates:
//
//	switch shared.KindOf(err) {
//	case shared.KindUnknownCommand:
//	    // typo in crontab
//	case shared.KindSpawnFailure:
//	    // shell or binary missing
//	}
//
// # Marking
//
// MarkKind attaches a kind to a foreign error while keeping it reachable via errors.Is:
//
//	if errors.Is(err, exec.ErrNotFound) {
//	    return shared.MarkKind(err, shared.KindSpawnFailure)
//	}
//
// # Message Style
//
// Keep messages lowercase and without punctuation; they are usually wrapped with the
// job name via Wrap or Wrapf.
package shared
