package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/edulane/darasa/core/activity"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, role, pwd string,
	isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClassroom(
	t *testing.T,
	repo classroom.Repository,
	ownerID, name, subject string,
	settings ...classroom.Settings,
) classroom.Classroom {
	t.Helper()

	now := time.Now().UTC()
	c := classroom.Classroom{
		Name:        name,
		Subject:     subject,
		SubjectSlug: subject,
		ClassCode:   classroom.GenerateClassCode(subject),
		OwnerID:     ownerID,
		Settings:    classroom.Settings{AllowJoinRequests: true, MaxStudents: 200},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(settings) > 0 {
		c.Settings = settings[0]
	}
	c, err := repo.CreateClassroom(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return c
}

func CreateMembership(
	t *testing.T,
	repo classroom.MembershipRepository,
	classroomID, studentID, status string,
) classroom.Membership {
	t.Helper()

	m, err := repo.CreateMembership(context.Background(), classroom.Membership{
		ClassroomID: classroomID,
		StudentID:   studentID,
		Status:      status,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateMembership() failed: %v", err)
	}
	return m
}

func LogEntry(
	t *testing.T,
	repo activity.Repository,
	classroomID, userID, action, targetType, targetID, targetTitle string,
	at time.Time,
) activity.Entry {
	t.Helper()

	e, err := repo.CreateEntry(context.Background(), activity.Entry{
		UserID:      userID,
		ClassroomID: classroomID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		TargetTitle: targetTitle,
		Timestamp:   at.UTC(),
	})
	if err != nil {
		t.Fatalf("LogEntry() failed: %v", err)
	}
	return e
}
