package content

import (
	"context"
	"errors"

	"github.com/edulane/darasa/core"
)

var ErrInvalidType = core.NewValidationError(errors.New("invalid content type"))

type (
	// Store is the external content store holding material/quiz/announcement
	// rows. Items associate with a classroom either directly (classroom_id) or
	// through the legacy subject_slug key.
	Store interface {
		FindByClassroom(ctx context.Context, classroomID, typ string) ([]Item, error)
		FindBySlug(ctx context.Context, slug, typ string) ([]Item, error)
	}

	// Directory reconciles the two association strategies into one
	// authoritative listing per classroom.
	Directory struct {
		store Store
	}
)

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

// List resolves a classroom's content of the given type. Strategies run in
// fixed priority order and the first non-empty result set wins:
//
//	1. items directly linked by classroom id (source "classroom")
//	2. items matching the classroom's subjectSlug (source "subject_slug")
//	3. items matching the raw subject field (source "subject")
//
// Classrooms migrated from the legacy subject-keyed content model keep working
// without backfilling every row with a classroom id.
func (d *Directory) List(ctx context.Context, classroomID, subjectSlug, subject, typ string) (Listing, error) {
	if !ValidType(typ) {
		return Listing{}, ErrInvalidType
	}

	items, err := d.store.FindByClassroom(ctx, classroomID, typ)
	if err != nil {
		return Listing{}, err
	}
	source := SourceClassroom

	if len(items) == 0 && subjectSlug != "" {
		items, err = d.store.FindBySlug(ctx, subjectSlug, typ)
		if err != nil {
			return Listing{}, err
		}
		source = SourceSubjectSlug
	}
	if len(items) == 0 && subject != "" {
		items, err = d.store.FindBySlug(ctx, subject, typ)
		if err != nil {
			return Listing{}, err
		}
		source = SourceSubject
	}

	items = dedupe(items)
	if typ == TypeAnnouncements {
		items = normalizeAnnouncements(items)
	}
	if items == nil {
		items = []Item{}
	}
	return Listing{Items: items, Source: source}, nil
}

// dedupe drops repeated item ids. Strategies are not expected to overlap but
// the same item must never be double-counted if they do.
func dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// normalizeAnnouncements maps the store's "message" column onto title/content
// for rows predating those fields.
func normalizeAnnouncements(items []Item) []Item {
	for i, it := range items {
		if it.Title == "" {
			items[i].Title = it.Message
		}
		if it.Content == "" {
			items[i].Content = it.Message
		}
	}
	return items
}
