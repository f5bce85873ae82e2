package slots

import (
	"fmt"
	"strings"
	"time"
)

var monthsES = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// Label renders t as a 24-hour "day month year · HH:MM" string.
func Label(t time.Time, locale string) string {
	if isEnglish(locale) {
		return fmt.Sprintf("%s %02d, %d · %s", t.Month().String()[:3], t.Day(), t.Year(), t.Format("15:04"))
	}
	return fmt.Sprintf("%02d %s %d · %s", t.Day(), monthsES[t.Month()-1], t.Year(), t.Format("15:04"))
}

// DateLabel is Label without the time of day.
func DateLabel(t time.Time, locale string) string {
	if isEnglish(locale) {
		return fmt.Sprintf("%s %02d, %d", t.Month().String()[:3], t.Day(), t.Year())
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthsES[t.Month()-1], t.Year())
}

func isEnglish(locale string) bool {
	return strings.HasPrefix(strings.ToLower(locale), "en")
}
