package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseCron validates a 5-field cron expression or a descriptor such as @hourly.
func ParseCron(expr string) error {
	e := strings.TrimSpace(expr)
	if e == "" {
		return fmt.Errorf("empty cron expression")
	}

	if strings.HasPrefix(e, "@") {
		_, err := cron.ParseStandard(e)
		return err
	}

	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser5.Parse(e)
	return err
}

var daysRx = regexp.MustCompile(`^(\d+)d(.*)$`)

// ParseEvery parses a positive Go duration with an optional leading day
// segment, for example 90s, 1h30m or 1d12h.
func ParseEvery(s string) (time.Duration, error) {
	e := strings.TrimSpace(s)
	if e == "" {
		return 0, errors.New("empty duration")
	}

	var days time.Duration
	if m := daysRx.FindStringSubmatch(e); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid number of days %q: %w", m[1], err)
		}
		days = 24 * time.Hour * time.Duration(n)
		e = m[2]
	}

	var d time.Duration
	if e != "" {
		var err error
		d, err = time.ParseDuration(e)
		if err != nil {
			return 0, err
		}
	}
	if d > math.MaxInt64-days {
		return 0, errors.New("duration overflow")
	}
	d += days
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}
