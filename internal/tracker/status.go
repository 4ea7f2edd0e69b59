package tracker

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	StatusPass          = "PASS"
	StatusFail          = "FAIL"
	StatusKomplettering = "KOMPLETTERING"
	StatusKomp          = "KOMP"
	StatusNull          = "NULL"
)

// keywords in match order; KOMPLETTERING contains KOMP and must come first.
var keywords = []string{StatusPass, StatusFail, StatusKomplettering, StatusKomp}

var pending = mapset.NewSet(StatusKomp, StatusKomplettering)

// IsPending reports whether the status asks the student for more work.
func IsPending(status string) bool {
	return pending.Contains(status)
}

// Classify returns the keyword of the first title that contains one,
// case-insensitively, or StatusNull.
func Classify(titles []string) string {
	for _, title := range titles {
		upper := strings.ToUpper(title)
		for _, kw := range keywords {
			if strings.Contains(upper, kw) {
				return kw
			}
		}
	}
	return StatusNull
}

type StudentStatus struct {
	Student string
	Status  string
	Err     error
}

// Statuses classifies every student's issues for task. A student whose
// issues cannot be listed gets StatusNull and the error.
func (c *Client) Statuses(ctx context.Context, students []string, task string) []StudentStatus {
	res := make([]StudentStatus, 0, len(students))
	for _, s := range students {
		titles, err := c.ListIssueTitles(ctx, s, task)
		if err != nil {
			c.log.Error("failed to list issues", "student", s, "err", err)
			res = append(res, StudentStatus{Student: s, Status: StatusNull, Err: err})
			continue
		}
		res = append(res, StudentStatus{Student: s, Status: Classify(titles)})
	}
	return res
}
