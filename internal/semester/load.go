package semester

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appLog "regcal/internal/log"
	"regcal/internal/model"
)

// DataLoadError marks a semester or theme document as unusable: the
// source was unreachable, malformed, or failed validation. It is
// terminal for that resource; there is no retry policy.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

var validate = validator.New()

// LoadSemester fetches, decodes and validates a semester document.
func LoadSemester(ctx context.Context, f *Fetcher, src Source) (*model.Semester, error) {
	body, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}

	var sem model.Semester
	if err := json.Unmarshal(body, &sem); err != nil {
		appLog.Error("semester decode failed", err, "id", src.ID)
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}
	if err := validate.Struct(&sem); err != nil {
		appLog.Error("semester validation failed", err, "id", src.ID)
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}
	if sem.StartDate > sem.LastClassDate {
		err := fmt.Errorf("startDate %s is after lastClassDate %s", sem.StartDate, sem.LastClassDate)
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}

	appLog.Info("semester loaded",
		"id", src.ID,
		"name", sem.Name,
		"start", sem.StartDate,
		"last_class", sem.LastClassDate,
		"holiday_count", len(sem.Holidays),
	)
	return &sem, nil
}

// LoadTheme fetches and decodes a theme document. Theme failures degrade
// color resolution to no-ops, so callers typically log and continue.
func LoadTheme(ctx context.Context, f *Fetcher, src Source) (*model.Theme, error) {
	body, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}

	var th model.Theme
	if err := json.Unmarshal(body, &th); err != nil {
		appLog.Error("theme decode failed", err, "id", src.ID)
		return nil, &DataLoadError{Source: src.ID, Err: err}
	}

	appLog.Info("theme loaded", "id", src.ID, "palette_count", len(th.Palette))
	return &th, nil
}

// MissingHolidays reports which of the required holiday names have no
// case-insensitive substring match among the semester's holidays. These
// are warnings, not errors: a registrar feed occasionally renames an
// entry ("Student Holiday" vs "Student holiday").
func MissingHolidays(sem *model.Semester, required []string) []string {
	var missing []string
	for _, req := range required {
		reqLower := strings.ToLower(req)
		found := false
		for _, h := range sem.Holidays {
			if strings.Contains(strings.ToLower(h.Name), reqLower) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}
