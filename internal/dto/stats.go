package dto

import (
	"sort"
	"time"

	"github.com/zaplinker/backend/internal/models"
)

// DirectSource labels events that carried no utm_source.
const DirectSource = "direct"

// DayCount is the number of events on one UTC day
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// StatsSummary aggregates the access events of a range. Total counts every event in the
// range; the breakdowns cover the events that were loaded, which Truncated flags as partial.
type StatsSummary struct {
	Total     int64            `json:"total"`
	Unique    int64            `json:"unique"`
	ByDevice  map[string]int64 `json:"byDevice"`
	ByCountry map[string]int64 `json:"byCountry"`
	BySource  map[string]int64 `json:"bySource"`
	ByDay     []DayCount       `json:"byDay"`
	Truncated bool             `json:"truncated"`
}

// Summarize builds the summary of events. total is the size of the whole range.
func Summarize(events []models.AccessEvent, total int64) StatsSummary {
	s := StatsSummary{
		Total:     total,
		ByDevice:  map[string]int64{},
		ByCountry: map[string]int64{},
		BySource:  map[string]int64{},
		ByDay:     []DayCount{},
		Truncated: int64(len(events)) < total,
	}

	visitors := make(map[string]struct{}, len(events))
	days := map[string]int64{}
	for _, e := range events {
		visitors[e.VisitorKey] = struct{}{}
		s.ByDevice[string(e.DeviceType)]++

		country := e.Country
		if country == "" {
			country = "Unknown"
		}
		s.ByCountry[country]++

		source := e.UTMParameters.Source
		if source == "" {
			source = DirectSource
		}
		s.BySource[source]++

		days[e.Timestamp.UTC().Format(time.DateOnly)]++
	}
	s.Unique = int64(len(visitors))

	for day, count := range days {
		s.ByDay = append(s.ByDay, DayCount{Day: day, Count: count})
	}
	sort.Slice(s.ByDay, func(i, j int) bool { return s.ByDay[i].Day < s.ByDay[j].Day })
	return s
}

// WorkspaceStatsResponse is the analytics view of one workspace
type WorkspaceStatsResponse struct {
	WorkspaceID        string `json:"workspaceId"`
	AccessCount        int64  `json:"accessCount"`
	DesktopAccessCount int64  `json:"desktopAccessCount"`
	MobileAccessCount  int64  `json:"mobileAccessCount"`
	UniqueVisitorCount int64  `json:"uniqueVisitorCount"`
	// ApproxUniqueVisitors is the HyperLogLog estimate, absent without Redis.
	ApproxUniqueVisitors *int64               `json:"approxUniqueVisitors,omitempty"`
	UTMParameters        models.UTMParameters `json:"utmParameters"`
	AccessDetails        []models.AccessEvent `json:"accessDetails"`
	TotalEvents          int64                `json:"totalEvents"`
	Summary              StatsSummary         `json:"summary"`
}

// NumberStatsResponse is the access history of one number
type NumberStatsResponse struct {
	NumberID     string     `json:"numberId"`
	Number       string     `json:"number"`
	IsActive     bool       `json:"isActive"`
	Weight       int        `json:"weight"`
	AccessCount  int64      `json:"accessCount"`
	LastAccessAt *time.Time `json:"lastAccessAt,omitempty"`
	// Hits counts the logged accesses inside the requested range.
	Hits int64 `json:"hits"`
}
