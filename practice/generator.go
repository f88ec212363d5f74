// ABOUTME: Recurring task generator
// ABOUTME: Creates one task per assignment and due date, at most once a day
package practice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

// ActionTaskGeneration is the app log action that marks a completed run.
const ActionTaskGeneration = "Task Generation"

type Generator struct {
	store  *db.Store
	rules  Rules
	loc    *time.Location
	logger *zap.Logger
}

// RunResult describes one generator pass.
type RunResult struct {
	// AlreadyRan is set when today's marker exists and the run was not forced.
	AlreadyRan bool
	Created    []models.Task
	Skipped    int
}

func NewGenerator(store *db.Store, rules Rules, loc *time.Location, logger *zap.Logger) *Generator {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{store: store, rules: rules, loc: loc, logger: logger}
}

func (g *Generator) now() time.Time {
	return g.store.Now().In(g.loc)
}

// RanToday reports whether the app log already records a run today.
func (g *Generator) RanToday(ctx context.Context) (bool, error) {
	entries, err := g.store.LoadAppLog(ctx)
	if err != nil {
		return false, err
	}
	today := g.now().Format(models.DateLayout)
	for _, e := range entries {
		if e.Action == ActionTaskGeneration && strings.HasPrefix(strings.TrimSpace(e.Timestamp), today) {
			return true, nil
		}
	}
	return false, nil
}

// Run creates tasks for every assignment whose next due date has no task yet.
// Without force it is a no-op once today's marker is logged. The existence
// check and the append are not atomic, so concurrent forced runs can race.
func (g *Generator) Run(ctx context.Context, force bool) (*RunResult, error) {
	if !force {
		ran, err := g.RanToday(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check app log: %w", err)
		}
		if ran {
			g.logger.Debug("task generation already ran today")
			return &RunResult{AlreadyRan: true}, nil
		}
	}

	services, err := g.store.LoadServices(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Service, len(services))
	for _, s := range services {
		byName[s.Name] = s
	}

	assignments, err := g.store.LoadAssignments(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := g.store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[models.TaskKey]bool, len(existing))
	for _, t := range existing {
		seen[t.Key()] = true
	}

	now := g.now()
	today := Civil(now)
	result := &RunResult{}

	for _, a := range assignments {
		svc, ok := byName[a.ServiceName]
		if !ok {
			g.logger.Warn("assignment references unknown service",
				zap.String("entity", a.EntityID), zap.String("service", a.ServiceName))
			result.Skipped++
			continue
		}
		if a.StartDate != nil && a.StartDate.After(today) {
			result.Skipped++
			continue
		}

		due, ok := g.rules.NextDueDate(svc, today)
		if !ok {
			g.logger.Warn("unknown service frequency",
				zap.String("service", svc.Name), zap.String("frequency", svc.Frequency))
			result.Skipped++
			continue
		}

		task := models.Task{
			ID:          db.NewID(db.PrefixTask),
			EntityID:    a.EntityID,
			ServiceName: svc.Name,
			DueDate:     due,
			Status:      models.TaskNotStarted,
			UploadToken: db.NewUploadToken(),
			CreatedAt:   now.Format(models.TimestampLayout),
		}
		if seen[task.Key()] {
			result.Skipped++
			continue
		}
		seen[task.Key()] = true
		result.Created = append(result.Created, task)
	}

	if len(result.Created) > 0 {
		if err := g.store.AppendTasks(ctx, result.Created); err != nil {
			return nil, fmt.Errorf("failed to write tasks: %w", err)
		}
	}
	tasksGenerated.Add(float64(len(result.Created)))

	detail := "No new tasks"
	if n := len(result.Created); n > 0 {
		detail = fmt.Sprintf("Created %d tasks", n)
	}
	err = g.store.AppendAppLog(ctx, models.AppLogEntry{
		Timestamp: now.Format(models.TimestampLayout),
		Action:    ActionTaskGeneration,
		Detail:    detail,
	})
	if err != nil {
		return result, fmt.Errorf("failed to record task generation: %w", err)
	}

	g.logger.Info("task generation finished",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
		zap.Bool("forced", force))
	return result, nil
}

// Schedule registers a daily unforced run on a cron in the generator's
// timezone. The caller starts and stops the returned cron.
func (g *Generator) Schedule(expr string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(g.loc))
	_, err := c.AddFunc(expr, func() {
		if _, err := g.Run(context.Background(), false); err != nil {
			g.logger.Error("scheduled task generation failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return c, nil
}
