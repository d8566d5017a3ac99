package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/edulane/darasa/apps/api/echo"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
	testutil "github.com/edulane/darasa/tests"
)

func Test_notificationApi(t *testing.T) {
	e := setup(t)

	teacher := testutil.CreateUser(t, e.usrRepo, "Asha Teacher", "asha@test.cd", user.RoleTeacher, "", true)
	student := testutil.CreateUser(t, e.usrRepo, "Jabari Student", "jabari@test.cd", user.RoleStudent, "", true)
	c := testutil.CreateClassroom(t, e.classRepo, teacher.ID, "Math", "math")

	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/notifications")
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Empty inbox is a JSON list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	// a join request notifies the owner and confirms to the requester
	req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms/"+c.ID+"/join", studentToken,
		marchallObj(t, map[string]string{}))
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var studentNotifs []notification.Notification

	t.Run("Inbox lists notifications", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		unmarchallObj(t, rec, &studentNotifs)
		require.Len(t, studentNotifs, 1)
		assert.Equal(t, "Request Sent", studentNotifs[0].Title)
		assert.False(t, studentNotifs[0].Read)

		req, rec = newAuthRequest(http.MethodGet, "/v1/notifications?unread=true", teacherToken)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var teacherNotifs []notification.Notification
		unmarchallObj(t, rec, &teacherNotifs)
		require.Len(t, teacherNotifs, 1)
		assert.Equal(t, "New Join Request", teacherNotifs[0].Title)
	})

	t.Run("Mark one read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/"+studentNotifs[0].ID+"/read", studentToken)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var marked notification.Notification
		unmarchallObj(t, rec, &marked)
		assert.True(t, marked.Read)

		// unread filter is now empty
		req, rec = newAuthRequest(http.MethodGet, "/v1/notifications?unread=true", studentToken)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	t.Run("Cannot read someone else's", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/"+studentNotifs[0].ID+"/read", teacherToken)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "notification not found"}),
		}, rec)
	})

	t.Run("Mark all read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/notifications/read-all", teacherToken)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.MarkAllReadResponse{Marked: 1}),
		}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/notifications?unread=true", teacherToken)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})
}
