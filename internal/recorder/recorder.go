// Package recorder keeps the append-only CSV logs of a run: concluded
// applications, failures, questions the rule table could not answer and
// discovered hiring contacts.
package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/answer"
	"github.com/spigell/easy-applier/internal/listing"
)

const (
	AppliedFile   = "output.csv"
	FailedFile    = "failed.csv"
	QuestionsFile = "unprepared_questions.csv"
	ContactsFile  = "contacts.csv"
)

// urlColumn is the index of the listing URL in outcome rows.
const urlColumn = 2

// Recorder writes rows without headers, one file per log.
type Recorder struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New creates the output directory if needed.
func New(dir string, log *zap.Logger) (*Recorder, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{dir: dir, logger: log, now: time.Now}, nil
}

// Applied records a submitted application.
func (r *Recorder) Applied(posting *listing.Posting) error {
	return r.append(AppliedFile, r.outcomeRow(posting))
}

// Failed records an application that did not go through.
func (r *Recorder) Failed(posting *listing.Posting) error {
	return r.append(FailedFile, r.outcomeRow(posting))
}

// RecordAttempt stores a question the rule table missed.
func (r *Recorder) RecordAttempt(_ context.Context, a answer.Attempt) error {
	return r.append(QuestionsFile, []string{a.Kind.String(), a.Label})
}

// Contact stores the profile URL of a hiring contact found after submission.
func (r *Recorder) Contact(posting *listing.Posting, profileURL string) error {
	return r.append(ContactsFile, []string{
		posting.Company,
		posting.Title,
		posting.URL,
		profileURL,
		r.now().UTC().Format(time.RFC3339),
	})
}

// AppliedURLs returns the canonical URLs of the success log. A missing log is
// an empty history.
func (r *Recorder) AppliedURLs() (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(r.path(AppliedFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	urls := make(map[string]struct{})
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", AppliedFile, err)
		}
		if len(row) > urlColumn && row[urlColumn] != "" {
			urls[listing.CanonicalURL(row[urlColumn])] = struct{}{}
		}
	}
	return urls, nil
}

func (r *Recorder) outcomeRow(posting *listing.Posting) []string {
	return []string{
		posting.Company,
		posting.Title,
		posting.URL,
		posting.Location,
		posting.SearchLocation,
		r.now().UTC().Format(time.RFC3339),
	}
}

func (r *Recorder) path(name string) string {
	return filepath.Join(r.dir, name)
}

func (r *Recorder) append(name string, row []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	r.logger.Debug("log updated", zap.String("file", name))
	return nil
}
