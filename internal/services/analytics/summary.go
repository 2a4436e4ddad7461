// Package analytics computes point-in-time rollups over already loaded
// collections. The functions here are pure: identical input and the same now
// always produce the same output.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
)

// UnspecifiedType groups jobs whose equipment has no type.
const UnspecifiedType = "Unspecified"

type SummaryInput struct {
	Jobs      []*models.Job
	Tasks     []*models.Task
	Customers []*models.Customer
	Equipment []*models.Equipment
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type Summary struct {
	ActiveJobs          int         `json:"activeJobs"`
	PendingTasks        int         `json:"pendingTasks"`
	CompletedThisWeek   int         `json:"completedThisWeek"`
	AverageRepairDays   float64     `json:"averageRepairDays"`
	TotalCustomers      int         `json:"totalCustomers"`
	JobsByEquipmentType []TypeCount `json:"jobsByEquipmentType"`
}

func Summarize(in SummaryInput, now time.Time) Summary {
	out := Summary{
		TotalCustomers:      len(in.Customers),
		JobsByEquipmentType: []TypeCount{},
	}

	weekStart := StartOfWeek(now)
	var repairDays float64
	var repaired int
	for _, j := range in.Jobs {
		if j.Status.IsActive() {
			out.ActiveJobs++
		}
		if j.Status != models.JobStatusCompleted || j.CompletedAt == nil {
			continue
		}
		if !j.CompletedAt.Before(weekStart) {
			out.CompletedThisWeek++
		}
		repairDays += j.CompletedAt.Sub(j.CreatedAt).Hours() / 24
		repaired++
	}
	if repaired > 0 {
		out.AverageRepairDays = round1(repairDays / float64(repaired))
	}

	for _, t := range in.Tasks {
		if t.Status != models.TaskStatusCompleted {
			out.PendingTasks++
		}
	}

	out.JobsByEquipmentType = byEquipmentType(in.Jobs, in.Equipment)
	return out
}

func byEquipmentType(jobs []*models.Job, equipment []*models.Equipment) []TypeCount {
	typeOf := make(map[int64]string, len(equipment))
	for _, e := range equipment {
		name := e.TypeName
		if name == "" {
			name = UnspecifiedType
		}
		typeOf[e.ID] = name
	}

	counts := map[string]int{}
	for _, j := range jobs {
		if j.EquipmentID == nil {
			continue
		}
		name, ok := typeOf[*j.EquipmentID]
		if !ok {
			continue
		}
		counts[name]++
	}

	out := make([]TypeCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TypeCount{Type: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// StartOfWeek returns the most recent Sunday 00:00 in now's location.
func StartOfWeek(now time.Time) time.Time {
	day := startOfDay(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
