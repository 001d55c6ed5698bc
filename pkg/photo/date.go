package photo

import (
	"fmt"
	"strconv"
	"time"
)

// UnknownDate is the label for photos without a year.
const UnknownDate = "Date unknown"

// FormatDate renders whatever date parts a photo has, e.g. "May 3, 2020", "May 2020" or "2020".
// Zero parts count as missing.
func FormatDate(p Photo) string {
	y, m, d := deref(p.Year), deref(p.Month), deref(p.Day)

	switch {
	case y == 0:
		return UnknownDate
	case m != 0 && d != 0:
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%s %d, %d", t.Month(), t.Day(), t.Year())
	case m != 0:
		t := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%s %d", t.Month(), t.Year())
	default:
		return strconv.Itoa(y)
	}
}

func deref(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
