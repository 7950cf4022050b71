// Package seed loads users, projects and evaluations from a YAML fixture
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/internhub/internal/models"
)

//go:embed example.yaml
var ExampleYAML []byte

// File is the fixture layout. Users are referenced by key elsewhere.
type File struct {
	Users       []User       `yaml:"users"`
	Projects    []Project    `yaml:"projects"`
	Evaluations []Evaluation `yaml:"evaluations"`
}

type User struct {
	Key            string `yaml:"key"`
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	Role           string `yaml:"role"`
	GitHubUsername string `yaml:"github_username"`
	Mentor         string `yaml:"mentor"`
}

type Project struct {
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description"`
	Status        string      `yaml:"status"`
	PrimaryIntern string      `yaml:"primary_intern"`
	Mentor        string      `yaml:"mentor"`
	Interns       []string    `yaml:"interns"`
	Milestones    []Milestone `yaml:"milestones"`
}

type Milestone struct {
	Title   string     `yaml:"title"`
	DueDate *time.Time `yaml:"due_date"`
	Tasks   []Task     `yaml:"tasks"`
}

type Task struct {
	Title    string `yaml:"title"`
	Status   string `yaml:"status"`
	Assignee string `yaml:"assignee"`
}

type Evaluation struct {
	Intern    string     `yaml:"intern"`
	Evaluator string     `yaml:"evaluator"`
	Type      string     `yaml:"type"`
	Status    string     `yaml:"status"`
	Score     *float64   `yaml:"score"`
	Feedback  string     `yaml:"feedback"`
	DueDate   *time.Time `yaml:"due_date"`
	CreatedAt time.Time  `yaml:"created_at"`
}

// Store is the storage seeding writes to
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateProject(ctx context.Context, project *models.Project) error
	AddProjectIntern(ctx context.Context, projectID, internID string) error
	CreateMilestone(ctx context.Context, milestone *models.Milestone) error
	CreateTask(ctx context.Context, task *models.Task) error
	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error
}

// Result counts what was created. Users maps fixture keys to ids.
type Result struct {
	Users       map[string]string
	Projects    int
	Milestones  int
	Tasks       int
	Evaluations int
}

// Parse decodes a fixture, rejecting unknown fields
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses path
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Loader writes fixtures through a Store
type Loader struct {
	store  Store
	logger *logrus.Entry
}

func NewLoader(store Store, logger *logrus.Logger) *Loader {
	return &Loader{store: store, logger: logger.WithField("component", "seed")}
}

// Load creates everything in f in order: users, projects, evaluations.
// A user's mentor must appear earlier in the file.
func (l *Loader) Load(ctx context.Context, f *File) (*Result, error) {
	res := &Result{Users: make(map[string]string, len(f.Users))}

	for _, u := range f.Users {
		if u.Key == "" {
			return res, fmt.Errorf("user %q has no key", u.Email)
		}
		if _, dup := res.Users[u.Key]; dup {
			return res, fmt.Errorf("duplicate user key %q", u.Key)
		}
		role := models.Role(u.Role)
		if !role.Valid() {
			return res, fmt.Errorf("user %s: unknown role %q", u.Key, u.Role)
		}
		user := &models.User{Name: u.Name, Email: u.Email, Role: role}
		if u.GitHubUsername != "" {
			gh := u.GitHubUsername
			user.GitHubUsername = &gh
		}
		if u.Mentor != "" {
			id, err := res.ref(u.Mentor)
			if err != nil {
				return res, fmt.Errorf("user %s: %w", u.Key, err)
			}
			user.MentorID = &id
		}
		if err := l.store.CreateUser(ctx, user); err != nil {
			return res, err
		}
		res.Users[u.Key] = user.ID
	}

	for _, p := range f.Projects {
		if err := l.loadProject(ctx, p, res); err != nil {
			return res, fmt.Errorf("project %s: %w", p.Name, err)
		}
	}

	for i, e := range f.Evaluations {
		internID, err := res.ref(e.Intern)
		if err != nil {
			return res, fmt.Errorf("evaluation %d: %w", i, err)
		}
		evaluatorID, err := res.ref(e.Evaluator)
		if err != nil {
			return res, fmt.Errorf("evaluation %d: %w", i, err)
		}
		evalType := e.Type
		if evalType == "" {
			evalType = models.EvaluationTypeMentor
		}
		evaluation := &models.Evaluation{
			InternID:     internID,
			EvaluatorID:  evaluatorID,
			Type:         evalType,
			Status:       e.Status,
			Score:        e.Score,
			FeedbackText: e.Feedback,
			DueDate:      e.DueDate,
			CreatedAt:    e.CreatedAt,
		}
		if err := l.store.CreateEvaluation(ctx, evaluation); err != nil {
			return res, err
		}
		res.Evaluations++
	}

	l.logger.WithFields(logrus.Fields{
		"users":       len(res.Users),
		"projects":    res.Projects,
		"tasks":       res.Tasks,
		"evaluations": res.Evaluations,
	}).Info("seed loaded")
	return res, nil
}

func (l *Loader) loadProject(ctx context.Context, p Project, res *Result) error {
	project := &models.Project{Name: p.Name, Description: p.Description, Status: p.Status}
	if p.PrimaryIntern != "" {
		id, err := res.ref(p.PrimaryIntern)
		if err != nil {
			return err
		}
		project.PrimaryInternID = &id
	}
	if p.Mentor != "" {
		id, err := res.ref(p.Mentor)
		if err != nil {
			return err
		}
		project.MentorID = &id
	}
	if err := l.store.CreateProject(ctx, project); err != nil {
		return err
	}
	res.Projects++

	for _, key := range p.Interns {
		id, err := res.ref(key)
		if err != nil {
			return err
		}
		if err := l.store.AddProjectIntern(ctx, project.ID, id); err != nil {
			return err
		}
	}

	for _, m := range p.Milestones {
		milestone := &models.Milestone{ProjectID: project.ID, Title: m.Title, DueDate: m.DueDate}
		if err := l.store.CreateMilestone(ctx, milestone); err != nil {
			return err
		}
		res.Milestones++

		for _, t := range m.Tasks {
			task := &models.Task{MilestoneID: milestone.ID, Title: t.Title, Status: t.Status}
			if t.Assignee != "" {
				id, err := res.ref(t.Assignee)
				if err != nil {
					return err
				}
				task.AssigneeID = &id
			}
			if err := l.store.CreateTask(ctx, task); err != nil {
				return err
			}
			res.Tasks++
		}
	}
	return nil
}

func (r *Result) ref(key string) (string, error) {
	id, ok := r.Users[key]
	if !ok {
		return "", fmt.Errorf("unknown user key %q", key)
	}
	return id, nil
}
