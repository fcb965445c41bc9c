package championship

import (
	"math"
	"time"

	"klask-tracker/internal/domain"
)

// DurationSinceLastBecame returns the whole days since championID last took
// the title, rounded to the nearest day, or nil when the ledger never
// records them becoming champion.
func (e *Engine) DurationSinceLastBecame(s *domain.State, championID *domain.PlayerID) *int {
	if championID == nil {
		return nil
	}

	for i := len(s.ChampionshipHistory) - 1; i >= 0; i-- {
		ev := s.ChampionshipHistory[i]
		if ev.NewChampionID == nil || *ev.NewChampionID != *championID {
			continue
		}
		if ev.Date.IsZero() {
			return nil
		}
		days := roundDays(e.now().Sub(ev.Date.Time))
		return &days
	}
	return nil
}

// roundDays rounds half a day up: 18h is one day, 6h is zero.
func roundDays(d time.Duration) int {
	return int(math.Floor((d.Hours() + 12) / 24))
}

// DaysDefended counts the distinct calendar days on which championID played
// at least one game dated in [start, end). The calendar day of end is never
// credited: the day a title is lost does not count. A nil end means the
// reign is still running and every game up to now counts.
func (e *Engine) DaysDefended(s *domain.State, championID domain.PlayerID, start time.Time, end *time.Time) int {
	var (
		upper   time.Time
		lostDay string
	)
	if end != nil {
		upper = *end
		lostDay = e.Day(*end)
	} else {
		upper = e.now()
	}

	days := make(map[string]struct{})
	for _, g := range s.Games {
		if !g.Involves(championID) || g.Date.IsZero() {
			continue
		}
		t := g.Date.Time
		if t.Before(start) {
			continue
		}
		if end != nil && !t.Before(upper) {
			continue
		}
		if end == nil && t.After(upper) {
			continue
		}

		day := e.Day(t)
		if day == lostDay {
			continue
		}
		days[day] = struct{}{}
	}
	return len(days)
}

// Reign is one uninterrupted title tenure taken from the ledger. End is nil
// for the current reign.
type Reign struct {
	ChampionID   domain.PlayerID
	Start        time.Time
	End          *time.Time
	Reason       domain.Reason
	DaysDefended int
}

// Reigns walks the ledger and pairs every event with the next dated one.
// An event without a new champion ends the previous reign but opens none.
func (e *Engine) Reigns(s *domain.State) []Reign {
	var reigns []Reign
	for i, ev := range s.ChampionshipHistory {
		if ev.NewChampionID == nil || ev.Date.IsZero() {
			continue
		}

		r := Reign{
			ChampionID: *ev.NewChampionID,
			Start:      ev.Date.Time,
			Reason:     ev.Reason,
		}
		if next, ok := nextDated(s.ChampionshipHistory, i+1); ok {
			end := next
			r.End = &end
		}
		r.DaysDefended = e.DaysDefended(s, r.ChampionID, r.Start, r.End)
		reigns = append(reigns, r)
	}
	return reigns
}

func nextDated(events []domain.ChampionshipEvent, from int) (time.Time, bool) {
	for i := from; i < len(events); i++ {
		if !events[i].Date.IsZero() {
			return events[i].Date.Time, true
		}
	}
	return time.Time{}, false
}
