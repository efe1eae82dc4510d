package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

// GateDecision is the outcome of evaluating the submission window policies
// for one instant. Policy is the policy that opened the window, nil when no
// policy exists and the gate fails open.
type GateDecision struct {
	Allowed bool
	Reason  string
	Policy  *types.InspectionSetting
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "MON",
	time.Tuesday:   "TUE",
	time.Wednesday: "WED",
	time.Thursday:  "THU",
	time.Friday:    "FRI",
	time.Saturday:  "SAT",
	time.Sunday:    "SUN",
}

// EvaluateGate decides whether a submission at "now" is allowed. Date-pinned
// policies for today are exclusive; otherwise weekday policies apply, then
// the default policy. An empty policy set allows everything rather than
// locking every resident out of a misconfigured system.
func EvaluateGate(now time.Time, policies []*types.InspectionSetting) GateDecision {
	enabled := make([]*types.InspectionSetting, 0, len(policies))
	for _, p := range policies {
		if p != nil && p.Enabled {
			enabled = append(enabled, p)
		}
	}
	if len(enabled) == 0 {
		return GateDecision{Allowed: true, Reason: "no submission policies configured"}
	}

	today := utils.DateOnly(now)

	var pinned []*types.InspectionSetting
	for _, p := range enabled {
		if p.Date != nil && utils.DateOnly(*p.Date).Equal(today) {
			pinned = append(pinned, p)
		}
	}
	if len(pinned) > 0 {
		return decideWithin(now, pinned, "outside today's scheduled inspection window")
	}

	var weekday []*types.InspectionSetting
	for _, p := range enabled {
		if p.Date == nil && !p.IsDefault && weekdayMatches(now, p.Weekdays) {
			weekday = append(weekday, p)
		}
	}
	if len(weekday) > 0 {
		return decideWithin(now, weekday, "outside the inspection window for today")
	}

	for _, p := range enabled {
		if p.IsDefault && p.Date == nil && weekdayMatches(now, p.Weekdays) {
			return decideWithin(now, []*types.InspectionSetting{p}, "outside the default inspection window")
		}
	}

	return GateDecision{Allowed: false, Reason: "no inspection scheduled today"}
}

func decideWithin(now time.Time, candidates []*types.InspectionSetting, deniedReason string) GateDecision {
	for _, p := range candidates {
		within, err := withinWindow(now, p.StartTime, p.EndTime)
		if err != nil {
			continue
		}
		if within {
			return GateDecision{Allowed: true, Policy: p}
		}
	}
	return GateDecision{Allowed: false, Reason: deniedReason}
}

func weekdayMatches(now time.Time, weekdays string) bool {
	spec := strings.ToUpper(strings.TrimSpace(weekdays))
	if spec == "" || spec == types.WeekdaysAll {
		return true
	}
	today := weekdayNames[now.Weekday()]
	for _, d := range strings.Split(spec, ",") {
		if strings.TrimSpace(d) == today {
			return true
		}
	}
	return false
}

// withinWindow compares minute-of-day against a "HH:MM" window. A start
// later than the end means the window wraps midnight.
func withinWindow(now time.Time, start, end string) (bool, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return false, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false, err
	}
	nowMin := now.Hour()*60 + now.Minute()
	if startMin <= endMin {
		return nowMin >= startMin && nowMin <= endMin, nil
	}
	return nowMin >= startMin || nowMin <= endMin, nil
}

func parseClock(v string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: bad clock value %q", ErrConfiguration, v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrConfiguration, v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrConfiguration, v)
	}
	return h*60 + m, nil
}
