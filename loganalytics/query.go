package loganalytics

// QueryFilters composes by conjunction: only entries satisfying every
// non-zero field are returned. StartTime/EndTime must both be supplied
// together to engage the time index; otherwise the full master list is
// the starting set. MinSeverity of -1 means "not set".
type QueryFilters struct {
	StartTime   string
	EndTime     string
	Level       string
	Source      string
	Keyword     string
	Tags        []string
	MinSeverity int
}

// NewQueryFilters returns a QueryFilters with MinSeverity unset.
func NewQueryFilters() QueryFilters {
	return QueryFilters{MinSeverity: -1}
}

func (f QueryFilters) hasTimeRange() bool {
	return f.StartTime != "" && f.EndTime != ""
}

// matches applies every filter field except the time range, which is
// handled by choosing the starting set before calling this.
func (e *LogEntry) matchesQuery(f QueryFilters) bool {
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Keyword != "" && !anySubstringCaseInsensitive(e.Message, []string{f.Keyword}) {
		return false
	}
	if f.MinSeverity >= 0 && e.SeverityScore() < f.MinSeverity {
		return false
	}
	if len(f.Tags) > 0 {
		matched := false
		for _, tag := range f.Tags {
			if e.hasTag(tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
