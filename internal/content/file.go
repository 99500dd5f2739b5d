package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"gopkg.in/yaml.v3"
)

var extensions = []string{".yaml", ".yml"}

// FileProvider reads course definitions from <dir>/<courseID>.yaml.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) Course(ctx context.Context, courseID string) (*models.Course, error) {
	log := logger.FromContext(ctx).WithPrefix("content")

	if courseID == "" || strings.ContainsAny(courseID, `/\`) || courseID == "." || courseID == ".." {
		return nil, fmt.Errorf("%w: invalid course id %q", ErrCourseNotFound, courseID)
	}

	for _, ext := range extensions {
		path := filepath.Join(p.dir, courseID+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Error("failed to read %s: %v", path, err)
			return nil, fmt.Errorf("read course %s: %w", courseID, err)
		}
		log.Debug("loading course %s from %s", courseID, path)
		return Parse(courseID, raw)
	}
	return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
}

// Parse decodes a YAML course definition. The file name wins when the
// document carries no id of its own.
func Parse(courseID string, raw []byte) (*models.Course, error) {
	var c models.Course
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse course %s: %w", courseID, err)
	}
	if c.ID == "" {
		c.ID = courseID
	}
	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("invalid course %s: %w", courseID, err)
	}
	return &c, nil
}

func validate(c *models.Course) error {
	var errs []error
	seen := make(map[string]bool)
	check := func(where string, a models.Activity) {
		if strings.TrimSpace(a.ID) == "" {
			errs = append(errs, fmt.Errorf("%s has no id", where))
			return
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate activity id %q", a.ID))
		}
		seen[a.ID] = true
		for ti, t := range a.Tasks {
			if t.XP < 0 {
				errs = append(errs, fmt.Errorf("activity %s task %d has negative xp", a.ID, ti))
			}
		}
	}
	for ai, a := range c.Activities {
		check(fmt.Sprintf("course activity %d", ai), a)
	}
	for mi, m := range c.Modules {
		for ai, a := range m.Activities {
			check(fmt.Sprintf("module %d activity %d", mi, ai), a)
		}
	}
	return errors.Join(errs...)
}
