package services

import (
	"time"

	"github.com/rickar/cal/v2"
)

// WorkdayService answers business-day questions for stage due-date
// computation. National holidays with fixed Gregorian dates are built in;
// the movable religious holidays (Idul Fitri, Idul Adha, Nyepi, Waisak) are
// announced yearly by joint ministerial decree and cannot be derived here,
// so review deadlines are a floor, not an exact promise.
type WorkdayService struct {
	calendar *cal.BusinessCalendar
}

func NewWorkdayService() *WorkdayService {
	c := cal.NewBusinessCalendar()
	c.Name = "Indonesia"
	c.AddHoliday(indonesianHolidays()...)
	return &WorkdayService{calendar: c}
}

func indonesianHolidays() []*cal.Holiday {
	return []*cal.Holiday{
		{Name: "Tahun Baru Masehi", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Hari Buruh Internasional", Type: cal.ObservancePublic, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Hari Lahir Pancasila", Type: cal.ObservancePublic, Month: time.June, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Hari Kemerdekaan", Type: cal.ObservancePublic, Month: time.August, Day: 17, Func: cal.CalcDayOfMonth},
		{Name: "Hari Raya Natal", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
	}
}

// IsWorkday reports whether t is a working day.
func (s *WorkdayService) IsWorkday(t time.Time) bool {
	return s.calendar.IsWorkday(t)
}

// AddBusinessDays returns the date that is n working days after from.
func (s *WorkdayService) AddBusinessDays(from time.Time, n int) time.Time {
	t := from
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if s.calendar.IsWorkday(t) {
			added++
		}
	}
	return t
}
