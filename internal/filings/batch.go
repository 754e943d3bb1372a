package filings

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// OnProcessFileCallback is called after each input file has been handled.
type OnProcessFileCallback func(current int, total int) error

// Failure is one input file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a batch run.
type Report struct {
	Processed int
	Skipped   int
	// Malformed counts malformed section headers across all documents.
	Malformed int
	Failed    []Failure
}

// listInputs returns the files in dir matching pattern, sorted.
func listInputs(dir string, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid pattern %s", pattern)
	}

	files := make([]string, 0, len(matches))

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		files = append(files, match)
	}

	sort.Strings(files)

	return files, nil
}

// outputPath maps an input file to its output in dir with the given extension.
func outputPath(dir string, input string, ext string) string {
	base := filepath.Base(input)

	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// writeAtomic writes through a temporary file so an interrupted run never
// leaves a partial output that a later run would skip.
func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(tmp)

		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tmp)

		return err
	}

	return os.Rename(tmp, path)
}

// eachFile runs process over files, isolating per-file failures in the report.
// It stops between files when ctx is cancelled or the callback fails.
func eachFile(
	ctx context.Context,
	files []string,
	log *logger.Logger,
	report *Report,
	onProcessFile optional.Option[OnProcessFileCallback],
	process func(path string) error,
) error {
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeCancelled, "batch cancelled", err)
		}

		if err := process(path); err != nil {
			log.Error("Failed to process filing",
				zap.String("path", path),
				zap.Error(err),
			)

			report.Failed = append(report.Failed, Failure{Path: path, Err: err})
		}

		if onProcessFile.IsSome() {
			if err := onProcessFile.Unwrap()(i+1, len(files)); err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "progress callback failed", err)
			}
		}
	}

	return nil
}
