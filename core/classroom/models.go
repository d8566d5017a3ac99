package classroom

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/edulane/darasa/core"
)

// Membership statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Join request actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

const (
	defaultMaxStudents = 200
	discoverLimit      = 50
)

type (
	Settings struct {
		AllowJoinRequests bool `json:"allowJoinRequests"`
		MaxStudents       int  `json:"maxStudents"`
		IsArchived        bool `json:"isArchived"`
	}

	Classroom struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Subject     string    `json:"subject"`
		SubjectSlug string    `json:"subjectSlug"`
		ClassCode   string    `json:"classCode"`
		OwnerID     string    `json:"ownerId"`
		CoverImage  string    `json:"coverImage,omitempty"`
		Settings    Settings  `json:"settings"`
		MemberCount int       `json:"memberCount"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	// Membership is the join relationship between one student and one classroom.
	// One row per (classroom, student) pair.
	Membership struct {
		ID              string    `json:"id"`
		ClassroomID     string    `json:"classroomId"`
		StudentID       string    `json:"studentId"`
		Status          string    `json:"status"`
		RequestedAt     time.Time `json:"requestedAt"`
		RespondedAt     time.Time `json:"respondedAt,omitempty"`
		RespondedBy     string    `json:"respondedBy,omitempty"`
		RequestMessage  string    `json:"requestMessage,omitempty"`
		RejectionReason string    `json:"rejectionReason,omitempty"`
	}

	// OwnerClassroom is a teacher's view of their classroom, enriched with the
	// live pending-request count.
	OwnerClassroom struct {
		Classroom
		PendingRequests int `json:"pendingRequests"`
	}

	// StudentClassroom is a student's view of a joined (or requested) classroom.
	StudentClassroom struct {
		Classroom
		MembershipStatus string `json:"membershipStatus"`
		MembershipID     string `json:"membershipId"`
	}

	// DiscoverResult tags a browsable classroom with the caller's existing
	// membership status, if any.
	DiscoverResult struct {
		Classroom
		MembershipStatus string `json:"membershipStatus,omitempty"`
	}
)

func (c *Classroom) IsOwnedBy(userID string) bool { return c.OwnerID == userID }

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Subject     string    `json:"subject" validate:"required"`
	Description string    `json:"description" validate:"max=500"`
	SubjectSlug string    `json:"subjectSlug"`
	Settings    *Settings `json:"settings"`
}

func (nc *NewClassroom) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	if nc.SubjectSlug == "" {
		nc.SubjectSlug = core.Slugify(nc.Subject)
	}
	return core.Validate.Struct(nc)
}

// UpdateClassroom defines what may be modified on an existing Classroom.
// Subject, subjectSlug and classCode are immutable once assigned.
type UpdateClassroom struct {
	Name        string    `json:"name" validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	CoverImage  *string   `json:"coverImage"`
	Settings    *Settings `json:"settings"`
}

func (uc *UpdateClassroom) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	return core.Validate.Struct(uc)
}

type JoinRequest struct {
	RequestMessage string `json:"requestMessage" validate:"max=300"`
}

func (jr *JoinRequest) Validate() error {
	jr.RequestMessage = core.CleanString(jr.RequestMessage)
	return core.Validate.Struct(jr)
}

type JoinByCode struct {
	ClassCode      string `json:"classCode" validate:"required"`
	RequestMessage string `json:"requestMessage" validate:"max=300"`
}

func (jc *JoinByCode) Validate() error {
	jc.ClassCode = strings.ToUpper(core.CleanString(jc.ClassCode))
	jc.RequestMessage = core.CleanString(jc.RequestMessage)
	return core.Validate.Struct(jc)
}

type RespondRequest struct {
	Action          string `json:"action" validate:"required,oneof=approve reject"`
	RejectionReason string `json:"rejectionReason" validate:"max=300"`
}

func (rr *RespondRequest) Validate() error {
	rr.Action = core.CleanString(rr.Action, true /* lower */)
	rr.RejectionReason = core.CleanString(rr.RejectionReason)
	return core.Validate.Struct(rr)
}

type BulkRespondRequest struct {
	RequestIDs []string `json:"requestIds" validate:"required,min=1"`
	Action     string   `json:"action" validate:"required,oneof=approve reject"`
}

func (br *BulkRespondRequest) Validate() error {
	br.Action = core.CleanString(br.Action, true /* lower */)
	return core.Validate.Struct(br)
}

type DiscoverFilter struct {
	Search  string `query:"search"`
	Subject string `query:"subject"`
}

func (df *DiscoverFilter) Clean() {
	df.Search = core.CleanString(df.Search)
	df.Subject = core.CleanString(df.Subject, true /* lower */)
}

// GenerateClassCode derives a human-shareable join code from the classroom
// subject: a 3-letter uppercased prefix and a 4-char random hex suffix,
// e.g. "PHY-A3F9". Collisions are assumed negligible given the code space;
// the unique index catches the astronomically rare clash.
func GenerateClassCode(subject string) string {
	prefix := strings.ToUpper(subject)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
