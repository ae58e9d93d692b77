package storage

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"relocate/internal/domain/models"
)

// Journal appends every persisted change to a JSON-lines file, so a
// relocation can be audited or reverted by hand.
type Journal struct {
	file io.WriteCloser
	mu   sync.Mutex
}

// NewJournal opens path for appending, creating it if needed.
func NewJournal(path string) (*Journal, error) {
	file, err := OpenFileAsWriter(path)
	if err != nil {
		return nil, err
	}
	return &Journal{file: file}, nil
}

// Record writes one entry.
func (j *Journal) Record(e models.JournalEntry) error {
	data, err := json.Marshal(&e)
	if err != nil {
		return errors.Wrap(err, "encoding journal entry")
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(data); err != nil {
		return errors.Wrap(err, "writing journal entry")
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// ReadJournal decodes every entry of a journal.
func ReadJournal(r io.Reader) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024) //nolint:mnd // post bodies can be large
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e models.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errors.Wrapf(err, "journal line %d", line)
		}
		entries = append(entries, e)
	}
	return entries, errors.Wrap(scanner.Err(), "reading journal")
}

// ReadJournalFile reads the journal stored at path.
func ReadJournalFile(path string) ([]models.JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	defer func() {
		_ = file.Close()
	}()
	return ReadJournal(file)
}

// OpenFileAsWriter opens a file for appending and creates it if it does not exist.
func OpenFileAsWriter(path string) (io.WriteCloser, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600) //nolint:mnd // owner read/write
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	return file, nil
}
