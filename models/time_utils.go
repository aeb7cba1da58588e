package models

import "time"

// IntervalDuration returns the bar length of a TwelveData-style interval.
func IntervalDuration(interval string) (time.Duration, bool) {
	switch interval {
	case "1min":
		return time.Minute, true
	case "5min":
		return 5 * time.Minute, true
	case "15min":
		return 15 * time.Minute, true
	case "30min":
		return 30 * time.Minute, true
	case "45min":
		return 45 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "2h":
		return 2 * time.Hour, true
	case "4h":
		return 4 * time.Hour, true
	case "8h":
		return 8 * time.Hour, true
	case "1day":
		return 24 * time.Hour, true
	case "1week":
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// CandlesForDays estimates how many candles cover the requested number of
// days, with a 10% buffer.
func CandlesForDays(interval string, days int) int {
	if days < 1 {
		days = 1
	}
	d, ok := IntervalDuration(interval)
	if !ok {
		d = 24 * time.Hour
	}

	perDay := float64(24*time.Hour) / float64(d)
	count := int(perDay * float64(days) * 1.1)
	if count < 2 {
		count = 2
	}
	return count
}
