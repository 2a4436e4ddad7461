package analytics

import (
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
)

const TrendDays = 30

// DateRange filters callbacks by requestedAt. Both ends are whole days and inclusive;
// a nil end is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) contains(t time.Time) bool {
	if r.From != nil && t.Before(startOfDay(r.From.In(t.Location()))) {
		return false
	}
	if r.To != nil && !t.Before(startOfDay(r.To.In(t.Location())).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

type StaffStats struct {
	StaffID                int64   `json:"staffId"`
	FullName               string  `json:"fullName"`
	Total                  int     `json:"total"`
	Completed              int     `json:"completed"`
	Pending                int     `json:"pending"`
	CompletionRate         float64 `json:"completionRate"`
	AverageCompletionHours float64 `json:"averageCompletionHours"`
	LongestCompletionHours float64 `json:"longestCompletionHours"`
}

type StatusBreakdown struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Archived  int `json:"archived"`
}

type PriorityBreakdown struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Urgent int `json:"urgent"`
}

type TrendPoint struct {
	Date           string `json:"date"`
	CreatedCount   int    `json:"createdCount"`
	CompletedCount int    `json:"completedCount"`
}

type CallbackSummary struct {
	Total          int               `json:"total"`
	Completed      int               `json:"completed"`
	CompletionRate float64           `json:"completionRate"`
	Staff          []StaffStats      `json:"staff"`
	ByStatus       StatusBreakdown   `json:"byStatus"`
	ByPriority     PriorityBreakdown `json:"byPriority"`
	Trend          []TrendPoint      `json:"trend"`
}

// SummarizeCallbacks rolls up callbacks requested within r. The daily trend
// always covers the TrendDays days ending today and ignores r.
func SummarizeCallbacks(callbacks []*models.CallbackRequest, staff []*models.User, r DateRange, now time.Time) CallbackSummary {
	var filtered []*models.CallbackRequest
	for _, cb := range callbacks {
		if r.contains(cb.RequestedAt) {
			filtered = append(filtered, cb)
		}
	}

	out := CallbackSummary{
		Total: len(filtered),
		Staff: make([]StaffStats, 0, len(staff)),
		Trend: trend(callbacks, now),
	}
	for _, cb := range filtered {
		switch cb.Status {
		case models.CallbackStatusPending:
			out.ByStatus.Pending++
		case models.CallbackStatusCompleted:
			out.ByStatus.Completed++
			out.Completed++
		case models.CallbackStatusDeleted:
			out.ByStatus.Archived++
		}
		switch cb.Priority {
		case models.PriorityLow:
			out.ByPriority.Low++
		case models.PriorityMedium:
			out.ByPriority.Medium++
		case models.PriorityHigh:
			out.ByPriority.High++
		case models.PriorityUrgent:
			out.ByPriority.Urgent++
		}
	}
	out.CompletionRate = rate(out.Completed, out.Total)

	for _, u := range staff {
		out.Staff = append(out.Staff, staffStats(u, filtered))
	}
	return out
}

func staffStats(u *models.User, callbacks []*models.CallbackRequest) StaffStats {
	st := StaffStats{StaffID: u.ID, FullName: u.FullName}
	var sumHours float64
	var timed int
	for _, cb := range callbacks {
		if cb.AssignedTo == nil || *cb.AssignedTo != u.ID {
			continue
		}
		st.Total++
		switch cb.Status {
		case models.CallbackStatusCompleted:
			st.Completed++
			if cb.CompletedAt == nil {
				continue
			}
			h := cb.CompletedAt.Sub(cb.RequestedAt).Hours()
			sumHours += h
			timed++
			if h > st.LongestCompletionHours {
				st.LongestCompletionHours = h
			}
		case models.CallbackStatusPending:
			st.Pending++
		case models.CallbackStatusDeleted:
		}
	}
	st.CompletionRate = rate(st.Completed, st.Total)
	if timed > 0 {
		st.AverageCompletionHours = round1(sumHours / float64(timed))
	}
	st.LongestCompletionHours = round1(st.LongestCompletionHours)
	return st
}

func trend(callbacks []*models.CallbackRequest, now time.Time) []TrendPoint {
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(TrendDays - 1))

	points := make([]TrendPoint, TrendDays)
	pos := make(map[string]int, TrendDays)
	for i := range points {
		points[i].Date = first.AddDate(0, 0, i).Format("2006-01-02")
		pos[points[i].Date] = i
	}
	index := func(t time.Time) (int, bool) {
		i, ok := pos[t.In(now.Location()).Format("2006-01-02")]
		return i, ok
	}

	for _, cb := range callbacks {
		if i, ok := index(cb.RequestedAt); ok {
			points[i].CreatedCount++
		}
		if cb.Status == models.CallbackStatusCompleted && cb.CompletedAt != nil {
			if i, ok := index(*cb.CompletedAt); ok {
				points[i].CompletedCount++
			}
		}
	}
	return points
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}
