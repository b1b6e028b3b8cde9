package calc

import (
	"math"
	"time"

	"google.golang.org/genproto/googleapis/type/date"
)

// DateSystem selects the serial date epoch
type DateSystem uint8

const (
	// DateSystem1900 counts day 1 as 1900-01-01 and keeps the phantom
	// 1900-02-29 as serial 60
	DateSystem1900 DateSystem = iota
	// DateSystem1904 counts day 0 as 1904-01-01
	DateSystem1904
)

func (s DateSystem) String() string {
	if s == DateSystem1904 {
		return "1904"
	}
	return "1900"
}

const (
	serialTooLarge1900 = 2958466
	serialTooLarge1904 = serialTooLarge1900 - 1462
	// last serial of the range the 1900 leap-day bug covers
	leapBugSerial = 60
	msPerDay      = 86400000
	secondsPerDay = 86400
)

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

func (s DateSystem) tooLarge() float64 {
	if s == DateSystem1904 {
		return serialTooLarge1904
	}
	return serialTooLarge1900
}

// SerialToTime converts a serial date number to a UTC time with millisecond
// resolution. in the 1900 system serials up to 60 count from 1899-12-31 and
// later serials from 1899-12-30, so serial 60 and 61 land on the same day.
// negative or too-large serials fail with #NUM!.
func SerialToTime(serial float64, system DateSystem) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, NewFormulaError(ErrorCodeNum, "serial date is not a finite number")
	}
	if serial < 0 {
		return time.Time{}, newFormulaErrorf(ErrorCodeNum, "serial date %v is negative", serial)
	}
	if serial >= system.tooLarge() {
		return time.Time{}, newFormulaErrorf(ErrorCodeNum, "serial date %v is too large", serial)
	}

	days := math.Floor(serial)
	epoch := epoch1904
	if system == DateSystem1900 {
		epoch = epoch1900Minus1
		if days <= leapBugSerial {
			epoch = epoch1900
		}
	}
	ms := int64(math.Round((serial - days) * msPerDay))
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond), nil
}

// TimeToSerial converts a time to a serial date number. the time is read in
// its own location; only the wall clock matters.
func TimeToSerial(t time.Time, system DateSystem) (float64, error) {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	var serial float64
	switch system {
	case DateSystem1904:
		serial = serialSince(epoch1904, wall)
	default:
		serial = serialSince(epoch1900Minus1, wall)
		if math.Floor(serial) <= leapBugSerial {
			serial = serialSince(epoch1900, wall)
		}
	}
	if serial < 0 {
		return 0, newFormulaErrorf(ErrorCodeNum, "%s is before the %s epoch", t.Format(time.DateOnly), system)
	}
	if serial >= system.tooLarge() {
		return 0, newFormulaErrorf(ErrorCodeNum, "%s is too late for a serial date", t.Format(time.DateOnly))
	}
	return serial, nil
}

// serialSince returns fractional days from epoch to t, rounded to the
// millisecond. whole days are counted on unix seconds so dates past the
// range of time.Duration stay exact.
func serialSince(epoch, t time.Time) float64 {
	secs := t.Unix() - epoch.Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	ms := (secs-days*secondsPerDay)*1000 + int64(math.Round(float64(t.Nanosecond())/1e6))
	if ms >= msPerDay {
		days++
		ms -= msPerDay
	}
	return float64(days) + float64(ms)/msPerDay
}

// SerialToDate converts the day part of a serial number to a calendar date
func SerialToDate(serial float64, system DateSystem) (*date.Date, error) {
	t, err := SerialToTime(math.Floor(serial), system)
	if err != nil {
		return nil, err
	}
	return &date.Date{
		Year:  int32(t.Year()),
		Month: int32(t.Month()),
		Day:   int32(t.Day()),
	}, nil
}

// DateToSerial converts a calendar date to a whole serial number. month and
// day overflow roll over like the DATE function does.
func DateToSerial(d *date.Date, system DateSystem) (float64, error) {
	if d == nil {
		return 0, NewFormulaError(ErrorCodeValue, "date is missing")
	}
	t := time.Date(int(d.GetYear()), time.Month(d.GetMonth()), int(d.GetDay()), 0, 0, 0, 0, time.UTC)
	return TimeToSerial(t, system)
}
