package internal

import "context"

// logAction appends an audit row. Best effort, never fails the request.
func logAction(db DB, actorID *int, action, details string) {
	q := psql.Insert("logs").
		Columns("actor_id", "action", "details").
		Values(actorID, action, details)
	_, _ = qExec(context.Background(), db, q)
}
