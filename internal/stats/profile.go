package stats

import "github.com/emiliopalmerini/framescope/internal/domain"

// Profile describes what a capture contains before any analysis runs.
type Profile struct {
	FileID               string         `json:"file_id"`
	Filename             string         `json:"filename"`
	SourceTool           string         `json:"source_tool"`
	Application          string         `json:"application"`
	GameName             string         `json:"game_name,omitempty"`
	TotalRows            int            `json:"total_rows"`
	TotalColumns         int            `json:"total_columns"`
	AvailableColumns     int            `json:"available_columns"`
	NAColumns            int            `json:"na_columns"`
	NAColumnNames        []string       `json:"na_column_names"`
	AvailableColumnNames []string       `json:"available_column_names"`
	DurationSeconds      *float64       `json:"duration_seconds,omitempty"`
	AvgFPS               *float64       `json:"avg_fps,omitempty"`
	AvgFrameTimeMs       *float64       `json:"avg_frametime_ms,omitempty"`
	PresentModes         map[string]int `json:"present_modes,omitempty"`
}

// ProfileTable builds a Profile from a table and its upload metadata.
// info may be nil for tables that were never registered.
func ProfileTable(t *domain.Table, info *domain.FileInfo) *Profile {
	p := &Profile{
		Filename:             "unknown",
		SourceTool:           "unknown",
		Application:          "unknown",
		TotalRows:            t.Len(),
		TotalColumns:         len(t.ColumnNames()),
		NAColumnNames:        []string{},
		AvailableColumnNames: []string{},
	}
	if info != nil {
		p.FileID = info.FileID
		p.Filename = info.OriginalName
		p.SourceTool = info.SourceTool
		p.Application = info.Application
		p.GameName = info.GameName
	}

	for _, name := range t.ColumnNames() {
		if t.Presence(name) == domain.Present {
			p.AvailableColumnNames = append(p.AvailableColumnNames, name)
		} else {
			p.NAColumnNames = append(p.NAColumnNames, name)
		}
	}
	p.AvailableColumns = len(p.AvailableColumnNames)
	p.NAColumns = len(p.NAColumnNames)

	if t.Has(ColCPUStartTime) && t.Len() > 1 {
		d := round(duration(t), 2)
		p.DurationSeconds = &d
	}
	if ft, _ := columnValues(t, ColFrameTime); ft != nil {
		m := mean(ft)
		fps := round(1000/m, 1)
		avg := round(m, 2)
		p.AvgFPS, p.AvgFrameTimeMs = &fps, &avg
	}
	if apps := t.Strings(ColApplication); len(apps) > 0 && apps[0] != "" {
		p.Application = apps[0]
	}
	if modes := ValueCounts(t, ColPresentMode); len(modes) > 0 {
		p.PresentModes = modes
	}
	return p
}

// ValueCounts counts the non-missing values of a text column.
func ValueCounts(t *domain.Table, col string) map[string]int {
	vals := t.Strings(col)
	if vals == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, v := range vals {
		if v != "" {
			counts[v]++
		}
	}
	return counts
}
