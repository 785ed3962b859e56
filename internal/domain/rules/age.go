package rules

import "time"

func AgeAt(birthdate, now time.Time) int {
	if birthdate.IsZero() || now.Before(birthdate) {
		return 0
	}
	years := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() || (now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		years--
	}
	return years
}
