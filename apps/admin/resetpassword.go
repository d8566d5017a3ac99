package main

import (
	"context"
	"time"

	"github.com/edulane/darasa/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	_, err = cli.db.ExecContext(ctx,
		`UPDATE "user" SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		usr.PasswordHash, time.Now().UTC(), usr.ID)
	return err
}
