package service

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errUnparseableDate = errors.New("unparseable date text")

// parseDate resolves pt-BR date text ("hoje", "amanhã", DD/MM, DD/MM/YYYY)
// to midnight of that day in now's location. When no year is given the
// current year is assumed, even if that puts the date in the past; the
// caller rejects past dates.
func parseDate(text string, now time.Time) (time.Time, error) {
	input := strings.ToLower(strings.TrimSpace(text))
	midnight := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	}

	switch input {
	case "hoje":
		return midnight(now), nil
	case "amanhã", "amanha":
		return midnight(now.AddDate(0, 0, 1)), nil
	}

	parts := strings.Split(input, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, errUnparseableDate
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, errUnparseableDate
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, errUnparseableDate
	}
	year := now.Year()
	if len(parts) == 3 {
		year, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return time.Time{}, errUnparseableDate
		}
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	// time.Date normalizes out-of-range components (32/01 becomes 01/02);
	// a changed component means the input was not a real calendar date.
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, errUnparseableDate
	}
	return date, nil
}
