package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Operation names recorded in the log.
const (
	OpInit    = "init"
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
)

// TimestampLayout is the entry timestamp format: RFC3339 in UTC with
// microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts"`
	Operation string `json:"op"`

	ProjectID       string   `json:"project_id,omitempty"`
	Email           string   `json:"email,omitempty"`
	Files           []string `json:"files,omitempty"`
	RecipientsCount int      `json:"recipients_count,omitempty"` // For encrypt.
}

// Log appends entries to a JSON Lines file.
type Log struct {
	Path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{Path: path}
}

// Record appends an entry, filling in its id and timestamp. Failures are
// returned for the caller to report, but must never fail the operation that
// is being recorded. A nil Log records nothing.
func (l *Log) Record(entry Entry) error {
	if l == nil || l.Path == "" {
		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampLayout)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// Entries reads all entries. A missing log yields no entries.
func (l *Log) Entries() ([]Entry, error) {
	data, err := os.ReadFile(l.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}
