package content

import "time"

// Content types, matching the external store's table names.
const (
	TypeMaterials     = "materials"
	TypeAnnouncements = "announcements"
	TypeQuizzes       = "quizzes"
)

// Provenance of a content listing: which association strategy produced it.
const (
	SourceClassroom   = "classroom"
	SourceSubjectSlug = "subject_slug"
	SourceSubject     = "subject"
)

// ValidType reports whether t names a known content type.
func ValidType(t string) bool {
	return t == TypeMaterials || t == TypeAnnouncements || t == TypeQuizzes
}

// Item is a content row owned by the external content store, referenced here
// by its opaque id. Only the fields the directory needs are modeled; the rest
// travels opaquely in Extra.
type Item struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Content     string                 `json:"content,omitempty"`
	SubjectSlug string                 `json:"subject_slug,omitempty"`
	ClassroomID string                 `json:"classroom_id,omitempty"`
	FileURL     string                 `json:"file_url,omitempty"`
	QuizURL     string                 `json:"quiz_url,omitempty"`
	UploadedBy  string                 `json:"uploaded_by,omitempty"`
	PostedBy    string                 `json:"posted_by,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// Listing is a reconciled result set plus its provenance tag. Results from two
// strategies are never mixed in one listing.
type Listing struct {
	Items  []Item `json:"content"`
	Source string `json:"source"`
}
