package domain

import (
	"strconv"
	"time"
)

// RecentBatchYears допустимые batch years: текущий год (UTC) и пять
// предыдущих, в порядке убывания. Список и проверка считаются от одного
// и того же момента времени, чтобы форма и валидация не расходились.
func RecentBatchYears(now time.Time) []string {
	years := make([]string, 0, BatchYearSpan)
	current := now.UTC().Year()
	for i := 0; i < BatchYearSpan; i++ {
		years = append(years, strconv.Itoa(current-i))
	}
	return years
}
