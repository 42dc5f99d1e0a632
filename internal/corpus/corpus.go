// Package corpus loads the static affirmation fixtures used when the remote
// model is unavailable.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/justestif/go-wellness-mood/internal/mood"
	"github.com/justestif/go-wellness-mood/internal/pick"
)

// tagFor maps each label to the tag used in the affirmation fixtures.
var tagFor = map[mood.Label]string{
	mood.Happy:   "happy",
	mood.Sad:     "sad",
	mood.Anxious: "anxious",
	mood.Angry:   "angry",
	mood.Fearful: "fearful",
	mood.Urgent:  "suicidal",
	mood.Neutral: "confused",
}

// Tag returns the fixture tag for l, or the lower-cased label when l has no
// mapping.
func Tag(l mood.Label) string {
	if t, ok := tagFor[l]; ok {
		return t
	}
	return strings.ToLower(string(l))
}

// Row is a single affirmation.
type Row struct {
	MoodTag string
	Text    string
	Flagged bool
}

// Corpus is the read-only affirmation table. The zero value and a nil
// *Corpus are both empty.
type Corpus struct {
	rows  []Row
	byTag map[string][]Row
}

// New builds a Corpus from rows. Tags are normalised to lower case.
func New(rows []Row) *Corpus {
	c := &Corpus{byTag: make(map[string][]Row)}
	for _, r := range rows {
		r.MoodTag = strings.ToLower(strings.TrimSpace(r.MoodTag))
		c.rows = append(c.rows, r)
		c.byTag[r.MoodTag] = append(c.byTag[r.MoodTag], r)
	}
	return c
}

// Len returns the number of rows.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Rows returns the rows tagged tag.
func (c *Corpus) Rows(tag string) []Row {
	if c == nil {
		return nil
	}
	return c.byTag[strings.ToLower(tag)]
}

// Pick selects a row for label: first among rows with the mapped tag, then
// among rows tagged with the lower-cased label, then from the whole corpus.
// It reports false only when the corpus is empty.
func (c *Corpus) Pick(label mood.Label, src pick.Source) (Row, bool) {
	if c.Len() == 0 {
		return Row{}, false
	}

	candidates := c.Rows(Tag(label))
	if len(candidates) == 0 {
		candidates = c.Rows(strings.ToLower(string(label)))
	}
	if len(candidates) == 0 {
		candidates = c.rows
	}
	return pick.One(src, candidates)
}

// Load reads the mood examples table and the affirmation table. A missing
// file is logged and yields an empty corpus; a malformed file is an error.
//
// When the mood table lists known tags, affirmations are restricted to
// those tags. If that leaves nothing, every affirmation is kept.
func Load(moodsPath, affirmationsPath string, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "corpus")

	tags, err := loadMoodTags(moodsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logger.Warn("mood examples not found", "path", moodsPath)
	}

	rows, err := loadAffirmations(affirmationsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logger.Warn("affirmations not found, static fallback disabled", "path", affirmationsPath)
		return New(nil), nil
	}

	if len(tags) > 0 {
		var known []Row
		for _, r := range rows {
			if tags[strings.ToLower(strings.TrimSpace(r.MoodTag))] {
				known = append(known, r)
			}
		}
		if len(known) > 0 {
			rows = known
		}
	}

	c := New(rows)
	logger.Info("corpus loaded", "rows", c.Len(), "tags", len(c.byTag))
	return c, nil
}

func loadMoodTags(path string) (map[string]bool, error) {
	records, header, err := readCSV(path)
	if err != nil || header == nil {
		return nil, err
	}

	col, ok := header["mood_label"]
	if !ok {
		return nil, fmt.Errorf("reading %s: missing mood_label column", path)
	}

	tags := make(map[string]bool)
	for _, rec := range records {
		if col < len(rec) {
			if t := strings.ToLower(strings.TrimSpace(rec[col])); t != "" {
				tags[t] = true
			}
		}
	}
	return tags, nil
}

func loadAffirmations(path string) ([]Row, error) {
	records, header, err := readCSV(path)
	if err != nil || header == nil {
		return nil, err
	}

	tagCol, ok := header["mood_tag"]
	if !ok {
		return nil, fmt.Errorf("reading %s: missing mood_tag column", path)
	}
	textCol, ok := header["text"]
	if !ok {
		textCol, ok = header["affirmation"]
	}
	if !ok {
		return nil, fmt.Errorf("reading %s: missing text or affirmation column", path)
	}
	flagCol, hasFlag := header["safety_flag"]

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{
			MoodTag: field(rec, tagCol),
			Text:    field(rec, textCol),
		}
		if hasFlag {
			row.Flagged = ParseFlag(field(rec, flagCol))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readCSV returns the data rows and a column index keyed by lower-cased
// header name. An empty file yields a nil index.
func readCSV(path string) ([][]string, map[string]int, error) {
	if path == "" {
		return nil, nil, os.ErrNotExist
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading %s header: %w", path, err)
	}

	header := make(map[string]int, len(head))
	for i, h := range head {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, header, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

// ParseFlag normalises the fixture safety column to a bool. "flag", "unsafe",
// "true" and any non-zero number count as flagged.
func ParseFlag(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "safe", "false", "no":
		return false
	case "flag", "unsafe", "true", "yes":
		return true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0
	}
	return false
}
