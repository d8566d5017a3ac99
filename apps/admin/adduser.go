package main

import (
	"context"
	"time"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/user"
)

// addUser creates a user.User with the given role.
func (cli *commandLine) addUser(name, email, pwd string, isTeacher bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	if err := cli.usrRepo.CheckEmailUniqueness(ctx, email); err != nil {
		return err
	}

	role := user.RoleStudent
	if isTeacher {
		role = user.RoleTeacher
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrRepo.CreateUser(ctx, usr)
	return err
}
