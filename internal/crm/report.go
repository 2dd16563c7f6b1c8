package crm

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"evictioncrm/pkg/domain"
)

const (
	upcomingWindow = 7 * day
	upcomingLimit  = 5
	recentWindow   = 30 * day
	recentLimit    = 3
)

// Dashboard summarises the snapshot for the overview screen.
type Dashboard struct {
	GeneratedAt         time.Time                 `json:"generated_at"`
	TotalCases          int                       `json:"total_cases"`
	ActiveCases         int                       `json:"active_cases"`
	ClosedCases         int                       `json:"closed_cases"`
	CasesByStage        map[domain.CaseStage]int  `json:"cases_by_stage"`
	CasesBySource       map[domain.LeadSource]int `json:"cases_by_source"`
	OpenReminders       int                       `json:"open_reminders"`
	ActiveDocuments     int                       `json:"active_documents"`
	UpcomingReminders   []domain.Reminder         `json:"upcoming_reminders"`
	RecentCases         []domain.Case             `json:"recent_cases"`
	AvgCaseDurationDays float64                   `json:"avg_case_duration_days"`
	SuccessRate         float64                   `json:"success_rate"`
}

// BuildDashboard derives dashboard figures from st as of now.
//
// Upcoming reminders are open reminders due within seven days, soonest first,
// at most five. Recent cases are those opened in the last thirty days in
// collection order, at most three. Duration and success rate are computed over
// closed cases.
func BuildDashboard(st State, now time.Time) Dashboard {
	d := Dashboard{
		GeneratedAt:       now,
		TotalCases:        len(st.Cases),
		CasesByStage:      make(map[domain.CaseStage]int, int(domain.MaxStage)),
		CasesBySource:     make(map[domain.LeadSource]int, len(domain.LeadSources)),
		UpcomingReminders: []domain.Reminder{},
		RecentCases:       []domain.Case{},
	}
	for _, s := range domain.Stages() {
		d.CasesByStage[s] = 0
	}
	for _, src := range domain.LeadSources {
		d.CasesBySource[src] = 0
	}

	j := newJoiner(&st)
	var closedDuration time.Duration
	for _, c := range st.Cases {
		d.CasesByStage[c.Stage]++
		d.CasesBySource[c.LeadSource]++
		if c.Stage.Terminal() {
			d.ClosedCases++
			closedDuration += c.UpdatedAt.Sub(c.CreatedAt)
		} else {
			d.ActiveCases++
		}
		if len(d.RecentCases) < recentLimit && !c.CreatedAt.Before(now.Add(-recentWindow)) {
			d.RecentCases = append(d.RecentCases, j.decorate(c))
		}
	}
	if d.ClosedCases > 0 {
		d.AvgCaseDurationDays = closedDuration.Hours() / 24 / float64(d.ClosedCases)
	}
	if d.TotalCases > 0 {
		d.SuccessRate = float64(d.ClosedCases) / float64(d.TotalCases) * 100
	}

	for _, doc := range st.Documents {
		if !doc.Deleted() {
			d.ActiveDocuments++
		}
	}
	horizon := now.Add(upcomingWindow)
	for _, r := range st.Reminders {
		if r.Completed {
			continue
		}
		d.OpenReminders++
		if !r.DueDate.After(horizon) {
			d.UpcomingReminders = append(d.UpcomingReminders, r)
		}
	}
	sort.SliceStable(d.UpcomingReminders, func(a, b int) bool {
		return d.UpcomingReminders[a].DueDate.Before(d.UpcomingReminders[b].DueDate)
	})
	if len(d.UpcomingReminders) > upcomingLimit {
		d.UpcomingReminders = d.UpcomingReminders[:upcomingLimit]
	}
	return d
}

var caseColumns = []string{
	"id", "stage", "stage_title", "eviction_reason", "urgency_level", "lead_source",
	"property_id", "property_owner_id", "tenant_id", "documents", "open_reminders",
	"created_at", "updated_at",
}

// WriteCasesCSV renders the case register with a header row.
func WriteCasesCSV(w io.Writer, cases []domain.Case) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(caseColumns); err != nil {
		return err
	}
	for _, c := range cases {
		open := 0
		for _, r := range c.Reminders {
			if !r.Completed {
				open++
			}
		}
		docs := 0
		for _, doc := range c.Documents {
			if !doc.Deleted() {
				docs++
			}
		}
		row := []string{
			c.ID,
			strconv.Itoa(int(c.Stage)),
			c.Stage.Title(),
			string(c.EvictionReason),
			string(c.UrgencyLevel),
			string(c.LeadSource),
			c.PropertyID,
			c.PropertyOwnerID,
			c.TenantID,
			strconv.Itoa(docs),
			strconv.Itoa(open),
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Dashboard builds the dashboard from the current snapshot.
func (s *Store) Dashboard() Dashboard {
	var d Dashboard
	s.view(func(st *State) { d = BuildDashboard(*st, s.nowFn()) })
	return d
}
