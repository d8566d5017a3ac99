package activity

import (
	"context"
	"sort"
	"time"

	"github.com/edulane/darasa/core"
	"github.com/edulane/darasa/core/classroom"
)

type (
	// Repository owns the append-only activity log.
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntriesByClassroom returns all of a classroom's entries with
		// timestamp >= since (zero time means no lower bound).
		QueryEntriesByClassroom(ctx context.Context, classroomID string, since time.Time) ([]Entry, error)
		// QueryEntriesPage returns one page, newest first, plus the unpaged total.
		QueryEntriesPage(ctx context.Context, classroomID string, filter LogFilter) ([]Entry, int, error)
		QueryEntriesByTarget(ctx context.Context, classroomID, targetID string, actions []string) ([]Entry, error)
		DeleteEntriesByClassroom(ctx context.Context, classroomID string) error
		// DeleteEntriesOlderThan applies the retention age-out policy.
		DeleteEntriesOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	}

	// AccessGuard gates log writes and analytics reads.
	AccessGuard interface {
		RequireMember(ctx context.Context, classroomID, userID string) (classroom.Access, error)
		RequireOwner(ctx context.Context, classroomID, userID string) (classroom.Access, error)
	}

	// Roster lists a classroom's memberships; satisfied by
	// classroom.MembershipRepository.
	Roster interface {
		QueryMembershipsByClassroom(ctx context.Context, classroomID string, statuses ...string) ([]classroom.Membership, error)
	}

	Service struct {
		repo   Repository
		guard  AccessGuard
		roster Roster
	}
)

func NewService(repo Repository, guard AccessGuard, roster Roster) *Service {
	return &Service{repo: repo, guard: guard, roster: roster}
}

// Record appends one activity fact on behalf of an authorized user. The caller
// must be the classroom owner or an approved member.
func (svc *Service) Record(ctx context.Context, userID string, ne NewEntry) (Entry, error) {
	if _, err := svc.guard.RequireMember(ctx, ne.ClassroomID, userID); err != nil {
		return Entry{}, err
	}

	return svc.repo.CreateEntry(ctx, Entry{
		UserID:      userID,
		ClassroomID: ne.ClassroomID,
		Action:      ne.Action,
		TargetType:  ne.TargetType,
		TargetID:    ne.TargetID,
		TargetTitle: ne.TargetTitle,
		Metadata:    ne.Metadata,
		Timestamp:   time.Now().UTC(),
	})
}

// Logs returns one page of the classroom's activity log, newest first;
// owner only.
func (svc *Service) Logs(ctx context.Context, classroomID, ownerID string, filter LogFilter) ([]Entry, int, bool, error) {
	if _, err := svc.guard.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return nil, 0, false, err
	}
	filter.Clean()

	entries, total, err := svc.repo.QueryEntriesPage(ctx, classroomID, filter)
	if err != nil {
		return nil, 0, false, err
	}
	hasMore := total > filter.Skip+filter.Limit
	return entries, total, hasMore, nil
}

// Analytics folds the classroom's activity log over the window into the
// engagement report; owner only. A window with no activity yields a valid
// zero report.
func (svc *Service) Analytics(ctx context.Context, classroomID, ownerID string, days int) (Report, error) {
	if _, err := svc.guard.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return Report{}, err
	}
	if days <= 0 {
		days = 30
	}

	members, err := svc.roster.QueryMembershipsByClassroom(ctx, classroomID, classroom.StatusApproved)
	if err != nil {
		return Report{}, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	entries, err := svc.repo.QueryEntriesByClassroom(ctx, classroomID, since)
	if err != nil {
		return Report{}, err
	}

	// per-content view stats
	type contentAgg struct {
		stat    ContentStat
		viewers map[string]struct{}
	}
	contentByID := make(map[string]*contentAgg)
	for _, e := range entries {
		if e.TargetID == "" {
			continue
		}
		agg, ok := contentByID[e.TargetID]
		if !ok {
			agg = &contentAgg{
				stat:    ContentStat{TargetID: e.TargetID, TargetTitle: e.TargetTitle, TargetType: e.TargetType},
				viewers: make(map[string]struct{}),
			}
			contentByID[e.TargetID] = agg
		}
		agg.stat.ViewCount++
		agg.viewers[e.UserID] = struct{}{}
	}
	contentStats := make([]ContentStat, 0, len(contentByID))
	for _, agg := range contentByID {
		agg.stat.UniqueViewerCount = len(agg.viewers)
		contentStats = append(contentStats, agg.stat)
	}
	sort.Slice(contentStats, func(i, j int) bool { return contentStats[i].ViewCount > contentStats[j].ViewCount })

	// per-student engagement
	type studentAgg struct {
		stat   StudentStat
		viewed map[string]struct{}
	}
	studentByID := make(map[string]*studentAgg)
	for _, e := range entries {
		agg, ok := studentByID[e.UserID]
		if !ok {
			agg = &studentAgg{
				stat:   StudentStat{UserID: e.UserID, Actions: make(map[string]int)},
				viewed: make(map[string]struct{}),
			}
			studentByID[e.UserID] = agg
		}
		agg.stat.TotalActions++
		agg.stat.Actions[e.Action]++
		if e.Timestamp.After(agg.stat.LastActive) {
			agg.stat.LastActive = e.Timestamp
		}
		if e.TargetID != "" {
			agg.viewed[e.TargetID] = struct{}{}
		}
	}
	studentStats := make([]StudentStat, 0, len(studentByID))
	for _, agg := range studentByID {
		agg.stat.ViewedContentCount = len(agg.viewed)
		studentStats = append(studentStats, agg.stat)
	}
	sort.Slice(studentStats, func(i, j int) bool { return studentStats[i].TotalActions > studentStats[j].TotalActions })

	// inactive = approved roster minus anyone with a log row in range
	inactive := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := studentByID[m.StudentID]; !ok {
			inactive = append(inactive, m.StudentID)
		}
	}

	daily := make(map[string]int)
	breakdown := make(map[string]int)
	for _, e := range entries {
		daily[e.Timestamp.UTC().Format("2006-01-02")]++
		breakdown[e.Action]++
	}

	return Report{
		Summary: Summary{
			TotalMembers:      len(members),
			ActiveStudents:    len(studentByID),
			InactiveStudents:  len(inactive),
			TotalInteractions: len(entries),
			PeriodDays:        days,
		},
		ContentAnalytics: contentStats,
		StudentAnalytics: studentStats,
		InactiveStudents: inactive,
		DailyActivity:    daily,
		ActionBreakdown:  breakdown,
	}, nil
}

// ContentViewers reports who viewed one content item; owner only. Repeat views
// by the same user collapse to their most recent entry.
func (svc *Service) ContentViewers(ctx context.Context, classroomID, ownerID, targetID string) (ViewerStat, error) {
	if _, err := svc.guard.RequireOwner(ctx, classroomID, ownerID); err != nil {
		return ViewerStat{}, err
	}

	views, err := svc.repo.QueryEntriesByTarget(ctx, classroomID, targetID, viewActions)
	if err != nil {
		return ViewerStat{}, err
	}

	seen := make(map[string]struct{}, len(views))
	unique := make([]Entry, 0, len(views))
	for _, v := range views { // newest first per repository contract
		if _, ok := seen[v.UserID]; ok {
			continue
		}
		seen[v.UserID] = struct{}{}
		unique = append(unique, v)
	}

	return ViewerStat{
		Viewers:           unique,
		TotalViews:        len(views),
		UniqueViewerCount: len(unique),
	}, nil
}

// PurgeExpired deletes entries older than the configured retention window.
func (svc *Service) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-core.Conf.ActivityRetention)
	return svc.repo.DeleteEntriesOlderThan(ctx, cutoff)
}
