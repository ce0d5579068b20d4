package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// LocalArchiver moves processed extract files into a date-partitioned
// directory on the local filesystem. The development and test default.
type LocalArchiver struct {
	dir    string
	logger *zap.Logger
}

// NewLocalArchiver creates a LocalArchiver rooted at dir
func NewLocalArchiver(dir string, logger *zap.Logger) *LocalArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalArchiver{dir: dir, logger: logger}
}

// Archive moves the file under <dir>/YYYY/MM/DD/. Falls back to copy and
// delete when the archive directory is on a different filesystem.
func (a *LocalArchiver) Archive(ctx context.Context, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetDir := filepath.Join(a.dir, time.Now().Format("2006/01/02"))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create archive directory %s: %w", targetDir, err)
	}

	target := filepath.Join(targetDir, filepath.Base(sourcePath))
	if err := os.Rename(sourcePath, target); err != nil {
		if err := copyFile(sourcePath, target); err != nil {
			return fmt.Errorf("archive %s: %w", sourcePath, err)
		}
		if err := os.Remove(sourcePath); err != nil {
			return fmt.Errorf("remove archived file %s: %w", sourcePath, err)
		}
	}

	a.logger.Info("Extract archived",
		zap.String("file", filepath.Base(sourcePath)),
		zap.String("target", target))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
