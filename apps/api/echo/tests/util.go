package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/edulane/darasa/apps/api/echo"
	"github.com/edulane/darasa/core/activity"
	"github.com/edulane/darasa/core/classroom"
	"github.com/edulane/darasa/core/content"
	"github.com/edulane/darasa/core/notification"
	"github.com/edulane/darasa/core/user"
	contentsvc "github.com/edulane/darasa/services/content"
	emailsvc "github.com/edulane/darasa/services/email"
	dummydb "github.com/edulane/darasa/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type env struct {
	app Server

	usrRepo      user.Repository
	classRepo    classroom.Repository
	memberRepo   classroom.MembershipRepository
	activityRepo activity.Repository
	notifRepo    notification.Repository
	contentStore *contentsvc.DummyStore
}

func setup(t *testing.T) *env {
	t.Helper()
	emailsvc.ClearSentMessages()
	t.Cleanup(emailsvc.ClearSentMessages)

	// set up DB & repos
	db := dummydb.Open()
	e := &env{
		usrRepo:      dummydb.NewUserRepository(db),
		classRepo:    dummydb.NewClassroomRepository(db),
		memberRepo:   dummydb.NewMembershipRepository(db),
		activityRepo: dummydb.NewActivityRepository(db),
		notifRepo:    dummydb.NewNotificationRepository(db),
		contentStore: contentsvc.NewDummyStore(),
	}

	// set up services
	usrSvc := user.NewService(e.usrRepo)
	notifSvc := notification.NewService(e.notifRepo, usrSvc, emailsvc.NewConsoleServiceMock(), nopLogger{})
	classSvc := classroom.NewService(e.classRepo, e.memberRepo, e.activityRepo, usrSvc, notifSvc)
	activitySvc := activity.NewService(e.activityRepo, classSvc, e.memberRepo)

	// set up server
	e.app = NewServer(&Options{
		DisableReqLogs: true,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		ClassroomSvc:   classSvc,
		ActivitySvc:    activitySvc,
		NotifSvc:       notifSvc,
		ContentDir:     content.NewDirectory(e.contentStore),
	})
	return e
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchallObj(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
