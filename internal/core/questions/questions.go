// Package questions maps calendar dates to entries of the fixed question
// catalog. It is pure: the same date always resolves to the same question,
// which is what lets rounds snapshot their question at creation.
package questions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sync/api/internal/core/domain"
)

//go:embed questions.json
var catalogJSON []byte

const dateLayout = "2006-01-02"

// rolloverOffset shifts the game day boundary to 08:00 local time. An
// instant at 07:59 still belongs to the previous day's round.
const rolloverOffset = 8 * time.Hour

type Catalog struct {
	questions []domain.Question
}

func NewCatalog(data []byte) (*Catalog, error) {
	var qs []domain.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question catalog is empty")
	}
	return &Catalog{questions: qs}, nil
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := NewCatalog(catalogJSON)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Size() int {
	return len(c.questions)
}

// ForDay returns the question for a day number. The catalog is smaller than
// a year, so questions cycle: day n and day n+Size() resolve identically.
func (c *Catalog) ForDay(dayNumber int) domain.Question {
	idx := (dayNumber - 1) % len(c.questions)
	if idx < 0 {
		idx += len(c.questions)
	}
	return c.questions[idx]
}

// ForDate resolves a YYYY-MM-DD date to its question and day number.
func (c *Catalog) ForDate(date string) (domain.Question, int, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return domain.Question{}, 0, domain.ErrInvalidDate
	}
	day := DayNumber(t)
	return c.ForDay(day), day, nil
}

// Today resolves the current game date and its question.
func (c *Catalog) Today(now time.Time) (domain.Question, string) {
	date := GameDate(now)
	t, _ := time.Parse(dateLayout, date)
	return c.ForDay(DayNumber(t)), date
}

// DayNumber is the ordinal day within the date's calendar year (1..366).
func DayNumber(t time.Time) int {
	return t.YearDay()
}

// GameDate returns the calendar date the instant belongs to after applying
// the rollover offset, formatted as YYYY-MM-DD.
func GameDate(t time.Time) string {
	return t.Add(-rolloverOffset).Format(dateLayout)
}
