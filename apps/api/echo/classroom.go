package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/content"
	"github.com/edulane/darasa/core/user"
)

type classroomApi struct {
	svc        *classroom.Service
	contentDir *content.Directory
	userSvc    *user.Service
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *classroom.Service, dir *content.Directory, userSvc *user.Service) {
	api := classroomApi{svc: svc, contentDir: dir, userSvc: userSvc}

	cg := g.Group("/classrooms", jwt)

	cg.POST("", api.create, teacherMiddleware())
	cg.GET("", api.list)
	cg.GET("/discover", api.discover)
	cg.POST("/join-by-code", api.joinByCode)

	// detail endpoints
	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/join", api.requestJoin)
	dg.GET("/requests", api.listRequests)
	dg.PUT("/requests-bulk", api.respondBulk)
	dg.PUT("/requests/:requestId", api.respond)
	dg.GET("/members", api.listMembers)
	dg.DELETE("/members/:studentId", api.removeMember)
	dg.GET("/students", api.listStudents)
	dg.GET("/content/:type", api.listContent)
	dg.POST("/notify", api.notifyMembers)
}

// Handlers

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

// list dispatches on the caller's role once: teachers get their owned
// classrooms with pending-request counts, students get the classrooms
// they joined or requested to join.
func (api *classroomApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if claims.IsTeacher {
		classrooms, err := api.svc.ListForOwner(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return errors.Wrap(err, "listing owned classrooms")
		}
		return ctx.JSON(http.StatusOK, ClassroomListResponse{Role: user.RoleTeacher, Classrooms: classrooms})
	}

	classrooms, err := api.svc.ListForStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing joined classrooms")
	}
	return ctx.JSON(http.StatusOK, ClassroomListResponse{Role: user.RoleStudent, Classrooms: classrooms})
}

func (api *classroomApi) discover(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter classroom.DiscoverFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to DiscoverFilter")
	}

	classrooms, err := api.svc.Discover(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "discovering classrooms")
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	access, err := api.svc.RequireMember(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ClassroomDetailResponse{
		Classroom:  access.Classroom,
		IsOwner:    access.IsOwner,
		Membership: access.Membership,
	})
}

func (api *classroomApi) update(ctx echo.Context) error {
	var data classroom.UpdateClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassroom")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Classroom deleted successfully"})
}

func (api *classroomApi) requestJoin(ctx echo.Context) error {
	var data classroom.JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, err := api.svc.RequestJoin(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.RequestMessage)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, JoinResponse{
		Message:    "Join request sent successfully",
		Membership: m,
	})
}

func (api *classroomApi) joinByCode(ctx echo.Context) error {
	var data classroom.JoinByCode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinByCode")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, c, err := api.svc.JoinByCode(ctx.Request().Context(), data.ClassCode, claims.Subject, data.RequestMessage)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, JoinByCodeResponse{
		Message:       "Joined classroom successfully",
		Membership:    m,
		ClassroomName: c.Name,
	})
}

func (api *classroomApi) listRequests(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	status := core.CleanString(ctx.QueryParam("status"), true /* lower */)
	requests, err := api.svc.ListRequests(ctx.Request().Context(), ctx.Param("id"), claims.Subject, status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, requests)
}

func (api *classroomApi) respond(ctx echo.Context) error {
	var data classroom.RespondRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RespondRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	m, err := api.svc.Respond(ctx.Request().Context(), ctx.Param("id"), ctx.Param("requestId"), claims.Subject, data.Action, data.RejectionReason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *classroomApi) respondBulk(ctx echo.Context) error {
	var data classroom.BulkRespondRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkRespondRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	modified, err := api.svc.RespondBulk(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.RequestIDs, data.Action)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, BulkRespondResponse{ModifiedCount: modified})
}

func (api *classroomApi) listMembers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	members, err := api.svc.ListMembers(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	res, err := api.membersWithProfiles(ctx, members)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MembersResponse{Members: res, Total: len(res)})
}

func (api *classroomApi) listStudents(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	students, err := api.svc.ListStudents(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	res, err := api.membersWithProfiles(ctx, students)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StudentsResponse{Students: res, Total: len(res)})
}

// membersWithProfiles joins membership rows with their student profiles.
func (api *classroomApi) membersWithProfiles(ctx echo.Context, members []classroom.Membership) ([]MemberResponse, error) {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.StudentID)
	}
	users, err := api.userSvc.GetManyByID(ctx.Request().Context(), ids)
	if err != nil {
		return nil, errors.Wrap(err, "fetching member profiles")
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	res := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		mr := MemberResponse{Membership: m}
		if u, ok := byID[m.StudentID]; ok {
			mr.Student = &MemberProfile{
				ID:             u.ID,
				Name:           u.Name,
				Email:          u.Email,
				ProfilePicture: u.ProfilePicture,
			}
		}
		res = append(res, mr)
	}
	return res, nil
}

func (api *classroomApi) removeMember(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.RemoveMember(ctx.Request().Context(), ctx.Param("id"), claims.Subject, ctx.Param("studentId")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Member removed"})
}

func (api *classroomApi) listContent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	access, err := api.svc.RequireMember(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}

	c := access.Classroom
	listing, err := api.contentDir.List(ctx.Request().Context(), c.ID, c.SubjectSlug, c.Subject, ctx.Param("type"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listing)
}

func (api *classroomApi) notifyMembers(ctx echo.Context) error {
	var data NotifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotifyRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recipients, err := api.svc.NotifyMembers(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Type, data.Title, data.Message, data.Link)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NotifyResponse{
		Message:    "Notification sent",
		Recipients: recipients,
	})
}

type (
	// ClassroomListResponse is the role-tagged union returned by the list
	// endpoint: Classrooms holds []classroom.OwnerClassroom for teachers,
	// []classroom.StudentClassroom for students.
	ClassroomListResponse struct {
		Role       string      `json:"role"`
		Classrooms interface{} `json:"classrooms"`
	}

	ClassroomDetailResponse struct {
		Classroom  classroom.Classroom   `json:"classroom"`
		IsOwner    bool                  `json:"isOwner"`
		Membership *classroom.Membership `json:"membership,omitempty"`
	}

	JoinResponse struct {
		Message    string               `json:"message"`
		Membership classroom.Membership `json:"membership"`
	}

	JoinByCodeResponse struct {
		Message       string               `json:"message"`
		Membership    classroom.Membership `json:"membership"`
		ClassroomName string               `json:"classroomName"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	BulkRespondResponse struct {
		ModifiedCount int `json:"modifiedCount"`
	}

	MemberProfile struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		ProfilePicture string `json:"profile_picture,omitempty"`
	}

	MemberResponse struct {
		classroom.Membership
		Student *MemberProfile `json:"student,omitempty"`
	}

	MembersResponse struct {
		Members []MemberResponse `json:"members"`
		Total   int              `json:"total"`
	}

	StudentsResponse struct {
		Students []MemberResponse `json:"students"`
		Total    int              `json:"total"`
	}

	NotifyRequest struct {
		Type    string `json:"type"`
		Title   string `json:"title" validate:"required"`
		Message string `json:"message"`
		Link    string `json:"link"`
	}

	NotifyResponse struct {
		Message    string `json:"message"`
		Recipients int    `json:"recipients"`
	}
)

func (nr *NotifyRequest) Validate() error {
	nr.Type = core.CleanString(nr.Type, true /* lower */)
	nr.Title = core.CleanString(nr.Title)
	nr.Message = core.CleanString(nr.Message)
	return core.Validate.Struct(nr)
}
