package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// FileSource reads CSV files from a local directory.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(name, err)
	}
	if name == "" || filepath.Base(name) != name {
		return nil, unavailable(name, errors.New("invalid file name"))
	}

	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, unavailable(name, err)
	}
	defer f.Close()

	rows, err := ParseCSV(f)
	if err != nil {
		return nil, unavailable(name, err)
	}
	return rows, nil
}

// HealthCheck reports whether the data directory is readable.
func (s *FileSource) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.Dir)
	}
	return nil
}
