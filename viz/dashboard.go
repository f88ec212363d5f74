// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the call queue, client dispositions and recurring task load
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

// dueSoonDays is the "due this week" window.
const dueSoonDays = 7

type DashboardStats struct {
	// Client desk
	ClientsByStatus  map[string]int
	ClientsByOutcome map[string]int
	TotalClients     int
	QueueSize        int
	QueueWithPhone   int
	Flagged          int

	// Practice
	TotalEntities int
	TasksByStatus map[string]int
	OverdueTasks  []TaskAlert
	DueSoon       []TaskAlert
}

// TaskAlert is an open task that needs attention.
type TaskAlert struct {
	Entity  string
	Service string
	DueDate time.Time
	// Days is days late for overdue tasks and days left for upcoming ones.
	Days int
}

// GenerateDashboardStats reads every table it needs once. queueStatuses are
// the statuses the call queue works.
func GenerateDashboardStats(ctx context.Context, store *db.Store, queueStatuses []string, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		ClientsByStatus:  make(map[string]int),
		ClientsByOutcome: make(map[string]int),
		TasksByStatus:    make(map[string]int),
	}

	clients, err := store.LoadClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}
	stats.TotalClients = len(clients)
	for _, c := range clients {
		stats.ClientsByStatus[c.Status]++
		if c.Outcome != "" {
			stats.ClientsByOutcome[c.Outcome]++
		}
		if c.InternalFlag {
			stats.Flagged++
		}
	}

	queue := crm.Workable(clients, queueStatuses)
	stats.QueueSize = len(queue)
	for _, c := range queue {
		if crm.HasPhone(c.Phone) {
			stats.QueueWithPhone++
		}
	}

	entities, err := store.LoadEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entities: %w", err)
	}
	stats.TotalEntities = len(entities)
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}

	tasks, err := store.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	today := practice.Civil(now)
	for _, t := range tasks {
		stats.TasksByStatus[t.Status]++
		if t.Status == models.TaskCompleted || t.DueDate.IsZero() {
			continue
		}

		name := names[t.EntityID]
		if name == "" {
			name = t.EntityID
		}
		days := int(t.DueDate.Sub(today).Hours() / 24)
		switch {
		case days < 0:
			stats.OverdueTasks = append(stats.OverdueTasks, TaskAlert{Entity: name, Service: t.ServiceName, DueDate: t.DueDate, Days: -days})
		case days <= dueSoonDays:
			stats.DueSoon = append(stats.DueSoon, TaskAlert{Entity: name, Service: t.ServiceName, DueDate: t.DueDate, Days: days})
		}
	}

	byDue := func(alerts []TaskAlert) {
		sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].DueDate.Before(alerts[j].DueDate) })
	}
	byDue(stats.OverdueTasks)
	byDue(stats.DueSoon)

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  TAXDESK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("CALL QUEUE\n")
	out.WriteString(fmt.Sprintf("  📞 %d waiting (%d with a phone)\n\n", stats.QueueSize, stats.QueueWithPhone))

	out.WriteString("CLIENTS BY STATUS\n")
	statusOrder := append([]string{models.StatusNew}, models.CallResults...)
	statusOrder = append(statusOrder, models.StatusManagerEmailed)
	renderBars(&out, stats.ClientsByStatus, statusOrder)
	out.WriteString("\n")

	if len(stats.ClientsByOutcome) > 0 {
		out.WriteString("OUTCOMES\n")
		renderBars(&out, stats.ClientsByOutcome, models.Outcomes)
		out.WriteString("\n")
	}

	if len(stats.TasksByStatus) > 0 {
		out.WriteString("TASKS\n")
		renderBars(&out, stats.TasksByStatus, models.TaskStatuses)
		out.WriteString("\n")
	}

	// Stats
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  👥 %d clients  🏢 %d entities  🚩 %d flagged\n\n",
		stats.TotalClients, stats.TotalEntities, stats.Flagged))

	// Needs attention
	if len(stats.OverdueTasks) > 0 || len(stats.DueSoon) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		for _, a := range stats.OverdueTasks {
			out.WriteString(fmt.Sprintf("  ⚠️  %s - %s overdue by %d day(s)\n", a.Entity, a.Service, a.Days))
		}
		for _, a := range stats.DueSoon {
			out.WriteString(fmt.Sprintf("  ⏰ %s - %s due %s\n", a.Entity, a.Service, a.DueDate.Format(models.DateLayout)))
		}
	}

	return out.String()
}

// renderBars draws one scaled bar per key: known keys in order, then any
// others alphabetically.
func renderBars(out *strings.Builder, counts map[string]int, order []string) {
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	keys := make([]string, 0, len(counts))
	known := make(map[string]bool, len(order))
	for _, k := range order {
		known[k] = true
		if _, ok := counts[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range counts {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	for _, k := range keys {
		n := counts[k]
		// Calculate bar length (0-10 blocks)
		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		label := k
		if label == "" {
			label = "(blank)"
		}
		out.WriteString(fmt.Sprintf("  %-16s %s  %3d\n", label, bar, n))
	}
}
