package model

import (
	"sort"
	"time"
)

// DayGroup is a set of memos captured on the same calendar day.
type DayGroup struct {
	Label  string `json:"label"`
	Latest int64  `json:"latest"`
	Memos  []Memo `json:"memos"`
}

// GroupByDay buckets memos by calendar day in loc. Groups are ordered by their
// most recent memo, newest first; memos keep their collection order inside a group.
func GroupByDay(memos []Memo, now time.Time, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	today := dayKey(now.In(loc))
	yesterday := dayKey(now.In(loc).AddDate(0, 0, -1))

	index := make(map[string]int)
	var groups []DayGroup
	for _, m := range memos {
		created := m.Created().In(loc)
		key := dayKey(created)
		i, ok := index[key]
		if !ok {
			label := created.Format("Monday, Jan 2")
			switch key {
			case today:
				label = "Today"
			case yesterday:
				label = "Yesterday"
			}
			index[key] = len(groups)
			groups = append(groups, DayGroup{Label: label})
			i = len(groups) - 1
		}
		g := &groups[i]
		g.Memos = append(g.Memos, m)
		if m.CreatedAt > g.Latest {
			g.Latest = m.CreatedAt
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Latest > groups[b].Latest
	})
	return groups
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
