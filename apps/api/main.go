package main

import (
	"fmt"
	"log"
	"os"

	echoapi "github.com/edulane/darasa/apps/api/echo"
	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/activity"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/content"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
	contentsvc "github.com/edulane/darasa/services/content"
	emailsvc "github.com/edulane/darasa/services/email"
	logsvc "github.com/edulane/darasa/services/logger"
	"github.com/edulane/darasa/storage/database"
	sqlxrepos "github.com/edulane/darasa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db), usrSvc, mailSvc, logger)

	activityRepo := sqlxrepos.NewActivityRepository(db)
	membersRepo := sqlxrepos.NewMembershipRepository(db)
	classSvc := classroom.NewService(
		sqlxrepos.NewClassroomRepository(db),
		membersRepo,
		activityRepo,
		usrSvc,
		notifSvc,
	)
	activitySvc := activity.NewService(activityRepo, classSvc, membersRepo)
	contentDir := content.NewDirectory(contentsvc.NewSupabaseStore(core.Conf))

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start API Server

	server := echoapi.NewServer(&echoapi.Options{
		Address:      core.Conf.Server.Address(),
		Logger:       logger,
		UserSvc:      usrSvc,
		ClassroomSvc: classSvc,
		ActivitySvc:  activitySvc,
		NotifSvc:     notifSvc,
		ContentDir:   contentDir,
	})
	server.Start()
}
