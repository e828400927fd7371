package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/app"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/repo"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/database"
)

// seedFile is the YAML layout accepted by `system seed`.
type seedFile struct {
	Users    []schema.User    `yaml:"users"`
	Projects []schema.Project `yaml:"projects"`
	Tasks    []seedTask       `yaml:"tasks"`
}

type seedTask struct {
	ID          uuid.UUID        `yaml:"id"`
	ProjectID   uuid.UUID        `yaml:"project_id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Assignments []seedAssignment `yaml:"assignments"`
}

type seedAssignment struct {
	EmployeeID uuid.UUID `yaml:"employee_id"`
	Status     string    `yaml:"status"`
}

func NewSeedCommand() *cobra.Command {
	var (
		file       string
		maxAttempt int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, projects and tasks from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == constants.StoreDriverMemory {
				return errors.New("seeding the memory store has no lasting effect; configure store.driver=mongo")
			}

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var in seedFile
			if err := yaml.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*database.FromCentralConfig(cfg.Mongo).ConnectTimeout())
			defer cancel()

			db, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			if maxAttempt <= 0 {
				maxAttempt = cfg.Review.MaxReworkAttempts
			}
			n, err := applySeed(ctx, db, in, maxAttempt, time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Printf("Seeded %d users, %d projects, %d new tasks.\n", len(in.Users), len(in.Projects), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "seed.yaml", "YAML file with users, projects and tasks")
	cmd.Flags().IntVar(&maxAttempt, "max-rework-attempts", 0, "Rework ceiling for seeded assignments (defaults to review.max_rework_attempts)")

	return cmd
}

// applySeed upserts the directory and creates tasks that do not exist yet.
// It returns the number of tasks created.
func applySeed(ctx context.Context, db *repo.Client, in seedFile, maxRework int, now time.Time) (int, error) {
	for i := range in.Users {
		u := in.Users[i]
		if u.ID == uuid.Nil || !u.Role.Valid() {
			return 0, fmt.Errorf("user %q: id and a valid role are required", u.Name)
		}
		if err := db.Directory.UpsertUser(ctx, &u); err != nil {
			return 0, fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
	}
	for i := range in.Projects {
		p := in.Projects[i]
		if p.ID == uuid.Nil || p.ManagerID == uuid.Nil {
			return 0, fmt.Errorf("project %q: id and manager_id are required", p.Name)
		}
		if err := db.Directory.UpsertProject(ctx, &p); err != nil {
			return 0, fmt.Errorf("upsert project %s: %w", p.ID, err)
		}
	}

	created := 0
	for _, st := range in.Tasks {
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		} else if _, err := db.Tasks.GetTask(ctx, st.ID); err == nil {
			continue
		} else if !repo.IsNotFound(err) {
			return created, fmt.Errorf("get task %s: %w", st.ID, err)
		}

		proj, err := db.Directory.GetProject(ctx, st.ProjectID)
		if err != nil {
			return created, fmt.Errorf("task %q: project %s: %w", st.Title, st.ProjectID, err)
		}

		t := &schema.Task{
			ID:          st.ID,
			ProjectID:   proj.ID,
			Title:       st.Title,
			Description: st.Description,
			CreatedBy:   proj.ManagerID,
			Timestamps:  schema.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		for _, sa := range st.Assignments {
			status := schema.AssignmentStatus(sa.Status)
			if status == "" {
				status = schema.AssignmentAssigned
			}
			if status != schema.AssignmentAssigned && status != schema.AssignmentInProgress {
				return created, fmt.Errorf("task %q: seeded assignments must be assigned or in_progress", st.Title)
			}
			t.Assignments = append(t.Assignments, schema.Assignment{
				EmployeeID:        sa.EmployeeID,
				Status:            status,
				MaxReworkAttempts: maxRework,
				AssignedAt:        now,
				UpdatedAt:         now,
				Version:           1,
			})
		}
		if err := db.Tasks.CreateTask(ctx, t); err != nil {
			return created, fmt.Errorf("create task %q: %w", st.Title, err)
		}
		created++
	}
	return created, nil
}
