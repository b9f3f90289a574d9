// Package model defines the mission workspace data consumed by the object
// explorer: scene objects, mission inventories, satellite passes, planning
// results, accepted orders and run history.
package model

import (
	"strings"
	"time"
)

// SceneObjectType identifies what a scene object represents on the globe.
type SceneObjectType string

const (
	SceneSatellite     SceneObjectType = "satellite"
	SceneTarget        SceneObjectType = "target"
	SceneGroundStation SceneObjectType = "ground_station"
)

// Position is a geodetic position in degrees and kilometers.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt,omitempty"`
}

// SceneObject is an entity placed in the 3D scene by the user or an import.
// Scene objects are the more explicit source: when a scene object and a
// mission data entry share a name, the scene object's fields win.
type SceneObject struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     SceneObjectType `json:"type"`
	Color    string          `json:"color,omitempty"`
	Position *Position       `json:"position,omitempty"`
	Priority int             `json:"priority,omitempty"`
}

// Satellite is a spacecraft from mission data.
type Satellite struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	TLE1  string `json:"tle_line1,omitempty"`
	TLE2  string `json:"tle_line2,omitempty"`
}

// GroundStation is a downlink site from mission data.
type GroundStation struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Alt  float64 `json:"alt,omitempty"`
}

// Target is a point of interest to be imaged.
type Target struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Priority int     `json:"priority,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// LookSide is the side of the ground track a SAR instrument images.
type LookSide string

const (
	LookLeft  LookSide = "LEFT"
	LookRight LookSide = "RIGHT"
)

// PassDirection is the orbital direction of a pass.
type PassDirection string

const (
	PassAscending  PassDirection = "ASCENDING"
	PassDescending PassDirection = "DESCENDING"
)

// SARInfo carries the extra geometry of a synthetic-aperture radar pass.
type SARInfo struct {
	LookSide       LookSide      `json:"look_side"`
	PassDirection  PassDirection `json:"pass_direction,omitempty"`
	IncidenceAngle float64       `json:"incidence_angle,omitempty"`
	ImagingMode    string        `json:"imaging_mode,omitempty"`
}

// Opportunity is a single candidate satellite pass over a target.
type Opportunity struct {
	ID           string   `json:"id,omitempty"`
	Satellite    string   `json:"satellite_name"`
	Target       string   `json:"target"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	MaxElevation float64  `json:"max_elevation"`
	SAR          *SARInfo `json:"sar,omitempty"`

	// Partial marks a pass that failed to decode and holds only the fields
	// that could be recovered. It keeps the pass's slot so later passes
	// retain their index.
	Partial bool `json:"-"`
}

// IsSAR reports whether the opportunity carries SAR geometry.
func (o Opportunity) IsSAR() bool {
	return o.SAR != nil
}

// Duration returns the pass duration. ok is false when either timestamp
// cannot be parsed or the end precedes the start.
func (o Opportunity) Duration() (d time.Duration, ok bool) {
	start, err := ParseTime(o.StartTime)
	if err != nil {
		return 0, false
	}
	end, err := ParseTime(o.EndTime)
	if err != nil {
		return 0, false
	}
	if end.Before(start) {
		return 0, false
	}
	return end.Sub(start), true
}

// timeLayouts lists the timestamp formats seen in mission exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000000",
}

// ParseTime parses a mission timestamp. A trailing "Z" is optional for the
// zone-less layouts; zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if trimmed := strings.TrimSuffix(s, "Z"); trimmed != s {
			if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, firstErr
}
