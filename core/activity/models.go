package activity

import (
	"time"

	"github.com/edulane/darasa/core"
)

// Actions recorded against classroom content.
const (
	ActionViewMaterial     = "view_material"
	ActionViewAnnouncement = "view_announcement"
	ActionViewQuiz         = "view_quiz"
	ActionSubmitQuiz       = "submit_quiz"
	ActionOpenChat         = "open_chat"
	ActionSendMessage      = "send_message"
	ActionJoinClassroom    = "join_classroom"
	ActionDownloadMaterial = "download_material"
)

// Target types.
const (
	TargetMaterial     = "material"
	TargetAnnouncement = "announcement"
	TargetQuiz         = "quiz"
	TargetChat         = "chat"
	TargetClassroom    = "classroom"
)

var viewActions = []string{ActionViewMaterial, ActionViewAnnouncement, ActionViewQuiz}

// Entry is an append-only activity log fact. Entries are never mutated;
// deletion happens only by classroom cascade or the retention age-out.
type Entry struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	ClassroomID string                 `json:"classroomId"`
	Action      string                 `json:"action"`
	TargetType  string                 `json:"targetType"`
	TargetID    string                 `json:"targetId,omitempty"`
	TargetTitle string                 `json:"targetTitle,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"` // UTC
}

// NewEntry contains information needed to record an activity.
type NewEntry struct {
	ClassroomID string                 `json:"classroomId" validate:"required"`
	Action      string                 `json:"action" validate:"required,oneof=view_material view_announcement view_quiz submit_quiz open_chat send_message join_classroom download_material"`
	TargetType  string                 `json:"targetType" validate:"required,oneof=material announcement quiz chat classroom"`
	TargetID    string                 `json:"targetId"`
	TargetTitle string                 `json:"targetTitle"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (ne *NewEntry) Validate() error {
	ne.Action = core.CleanString(ne.Action, true /* lower */)
	ne.TargetType = core.CleanString(ne.TargetType, true /* lower */)
	return core.Validate.Struct(ne)
}

type (
	// ContentStat aggregates views of one content item within the window.
	ContentStat struct {
		TargetID          string `json:"targetId"`
		TargetTitle       string `json:"targetTitle"`
		TargetType        string `json:"targetType"`
		ViewCount         int    `json:"viewCount"`
		UniqueViewerCount int    `json:"uniqueViewerCount"`
	}

	// StudentStat aggregates one approved member's engagement within the window.
	StudentStat struct {
		UserID             string         `json:"userId"`
		TotalActions       int            `json:"totalActions"`
		Actions            map[string]int `json:"actions"`
		LastActive         time.Time      `json:"lastActive"`
		ViewedContentCount int            `json:"viewedContentCount"`
	}

	Summary struct {
		TotalMembers      int `json:"totalMembers"`
		ActiveStudents    int `json:"activeStudents"`
		InactiveStudents  int `json:"inactiveStudents"`
		TotalInteractions int `json:"totalInteractions"`
		PeriodDays        int `json:"periodDays"`
	}

	// Report is the full engagement analytics payload for one classroom.
	// An empty window yields zero counts and empty lists; that is a valid
	// result, not an error.
	Report struct {
		Summary          Summary        `json:"summary"`
		ContentAnalytics []ContentStat  `json:"contentAnalytics"`
		StudentAnalytics []StudentStat  `json:"studentAnalytics"`
		InactiveStudents []string       `json:"inactiveStudents"`
		DailyActivity    map[string]int `json:"dailyActivity"`
		ActionBreakdown  map[string]int `json:"actionBreakdown"`
	}

	// ViewerStat lists who viewed one content item.
	ViewerStat struct {
		Viewers           []Entry `json:"viewers"`
		TotalViews        int     `json:"totalViews"`
		UniqueViewerCount int     `json:"uniqueViewerCount"`
	}
)

type LogFilter struct {
	Action string `query:"action"`
	Limit  int    `query:"limit"`
	Skip   int    `query:"skip"`
}

func (lf *LogFilter) Clean() {
	lf.Action = core.CleanString(lf.Action, true /* lower */)
	if lf.Limit <= 0 || lf.Limit > 500 {
		lf.Limit = 100
	}
	if lf.Skip < 0 {
		lf.Skip = 0
	}
}
