package main

import (
	"context"
)

// sweepOrphans removes membership and activity rows whose classroom no longer
// exists, then resets each classroom's cached member count to the true number
// of approved memberships. Run after a crash mid classroom-delete cascade or
// whenever the counts drift.
func (cli *commandLine) sweepOrphans() error {
	ctx := context.Background()

	res, err := cli.db.ExecContext(ctx, `
		DELETE FROM classroom_membership
		WHERE classroom_id NOT IN (SELECT id FROM classroom)`)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		logger.Printf("purged %d orphaned membership(s)", n)
	}

	res, err = cli.db.ExecContext(ctx, `
		DELETE FROM activity_log
		WHERE classroom_id NOT IN (SELECT id FROM classroom)`)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		logger.Printf("purged %d orphaned activity entrie(s)", n)
	}

	res, err = cli.db.ExecContext(ctx, `
		UPDATE classroom c
		SET member_count = sub.cnt
		FROM (
			SELECT c2.id, COUNT(m.id) FILTER (WHERE m.status = 'approved') AS cnt
			FROM classroom c2
			LEFT JOIN classroom_membership m ON m.classroom_id = c2.id
			GROUP BY c2.id
		) sub
		WHERE sub.id = c.id AND c.member_count <> sub.cnt`)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		logger.Printf("reconciled member count on %d classroom(s)", n)
	}
	return nil
}
