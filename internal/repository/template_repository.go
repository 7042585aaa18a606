// internal/repository/template_repository.go
package repository

import (
	"os"
	"sort"

	appErrors "github.com/unclebandit/order-email-api/internal/errors"
)

type TemplateRepositoryInterface interface {
	Load(name string) (string, error)
	Names() []string
}

// TemplateRepository resolves logical template names to files on disk.
// Files are read on every Load; there is no cache.
type TemplateRepository struct {
	Paths map[string]string
}

func NewTemplateRepository(paths map[string]string) *TemplateRepository {
	copied := make(map[string]string, len(paths))
	for name, path := range paths {
		copied[name] = path
	}
	return &TemplateRepository{Paths: copied}
}

func (r *TemplateRepository) Load(name string) (string, error) {
	path, ok := r.Paths[name]
	if !ok {
		return "", appErrors.NewTemplateNotConfigured(name)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", appErrors.NewTemplateUnreadable(name, path, err)
	}
	return string(content), nil
}

func (r *TemplateRepository) Names() []string {
	names := make([]string, 0, len(r.Paths))
	for name := range r.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
