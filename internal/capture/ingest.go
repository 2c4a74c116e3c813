package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/parser"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

// IngestErrorKind classifies why an upload was rejected.
type IngestErrorKind int

const (
	ErrKindUnsupportedType IngestErrorKind = iota
	ErrKindTooLarge
	ErrKindUnrecognized
	ErrKindParse
	ErrKindTooManyRows
	ErrKindEmpty
)

// IngestError is a user-facing upload rejection.
type IngestError struct {
	Kind    IngestErrorKind
	Message string
}

func (e *IngestError) Error() string { return e.Message }

// TooLarge reports whether the upload broke a size or row limit.
func (e *IngestError) TooLarge() bool {
	return e.Kind == ErrKindTooLarge || e.Kind == ErrKindTooManyRows
}

// Limits bound what a single upload may contain.
type Limits struct {
	MaxFileSizeMB int
	MaxRows       int
}

func (l Limits) maxBytes() int64 { return int64(l.MaxFileSizeMB) * 1024 * 1024 }

// UploadResult is returned to the client after a successful upload.
type UploadResult struct {
	FileID           string         `json:"file_id"`
	Filename         string         `json:"filename"`
	SourceTool       string         `json:"source_tool"`
	Application      string         `json:"application"`
	GameName         string         `json:"game_name"`
	Rows             int            `json:"rows"`
	DurationSeconds  float64        `json:"duration_seconds"`
	ColumnsAvailable []string       `json:"columns_available"`
	ColumnsNA        []string       `json:"columns_na"`
	Profile          map[string]any `json:"profile"`
}

// Ingestor validates, parses and registers uploaded captures.
type Ingestor struct {
	store   *Store
	parsers *parser.Registry
	limits  Limits
	now     func() time.Time
}

func NewIngestor(store *Store, parsers *parser.Registry, limits Limits) *Ingestor {
	if parsers == nil {
		parsers = parser.Default
	}
	return &Ingestor{store: store, parsers: parsers, limits: limits, now: time.Now}
}

// Ingest reads an uploaded file into the session. r is read at most one byte
// past the size limit.
func (i *Ingestor) Ingest(sessionID, filename string, r io.Reader) (*UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, &IngestError{Kind: ErrKindUnsupportedType, Message: "Only CSV files are supported. Upload a .csv file."}
	}

	var content []byte
	var err error
	if max := i.limits.maxBytes(); max > 0 {
		content, err = io.ReadAll(io.LimitReader(r, max+1))
		if err == nil && int64(len(content)) > max {
			return nil, &IngestError{
				Kind:    ErrKindTooLarge,
				Message: fmt.Sprintf("File exceeds %dMB limit (got more than %dMB)", i.limits.MaxFileSizeMB, i.limits.MaxFileSizeMB),
			}
		}
	} else {
		content, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return i.IngestBytes(sessionID, filename, content)
}

// IngestBytes is Ingest for content already in memory.
func (i *Ingestor) IngestBytes(sessionID, filename string, content []byte) (*UploadResult, error) {
	if max := i.limits.maxBytes(); max > 0 && int64(len(content)) > max {
		return nil, &IngestError{
			Kind:    ErrKindTooLarge,
			Message: fmt.Sprintf("File exceeds %dMB limit (got %.1fMB)", i.limits.MaxFileSizeMB, float64(len(content))/(1024*1024)),
		}
	}

	p, err := i.parsers.Detect(content)
	if err != nil {
		if errors.Is(err, parser.ErrUnrecognizedFormat) {
			return nil, &IngestError{
				Kind:    ErrKindUnrecognized,
				Message: "Unrecognized file format. Supported formats: " + strings.Join(i.parsers.Names(), ", ") + " CSV. Ensure the CSV has the expected column headers.",
			}
		}
		return nil, fmt.Errorf("failed to detect format: %w", err)
	}

	table, err := p.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, &IngestError{Kind: ErrKindParse, Message: "Failed to parse CSV: " + err.Error()}
	}

	rows := table.Len()
	if i.limits.MaxRows > 0 && rows > i.limits.MaxRows {
		pr := message.NewPrinter(language.English)
		return nil, &IngestError{
			Kind:    ErrKindTooManyRows,
			Message: pr.Sprintf("File has %d rows, exceeding the %d row limit.", rows, i.limits.MaxRows),
		}
	}
	if rows == 0 {
		return nil, &IngestError{Kind: ErrKindEmpty, Message: "CSV file is empty (no data rows)."}
	}

	info := describe(p, table, filename)
	info.FileID = NewID(fileIDLength)
	info.UploadedAt = i.now().UTC()
	i.store.AddFile(sessionID, table, info)

	return &UploadResult{
		FileID:           info.FileID,
		Filename:         info.OriginalName,
		SourceTool:       info.SourceTool,
		Application:      info.Application,
		GameName:         info.GameName,
		Rows:             info.RowCount,
		DurationSeconds:  info.DurationSeconds,
		ColumnsAvailable: info.AvailableColumns,
		ColumnsNA:        info.NAColumns,
		Profile:          uploadProfile(table, info),
	}, nil
}

func describe(p parser.LogParser, table *domain.Table, filename string) domain.FileInfo {
	info := domain.FileInfo{
		OriginalName:     filename,
		SourceTool:       p.Name(),
		Application:      "Unknown",
		RowCount:         table.Len(),
		AvailableColumns: []string{},
		NAColumns:        []string{},
		Metadata:         map[string]any{},
	}

	if apps := table.Strings(stats.ColApplication); len(apps) > 0 && apps[0] != "" {
		info.Application = apps[0]
	}
	info.GameName = parser.ResolveGameName(info.Application)

	for _, name := range table.ColumnNames() {
		if table.Presence(name) == domain.Present {
			info.AvailableColumns = append(info.AvailableColumns, name)
		} else {
			info.NAColumns = append(info.NAColumns, name)
		}
	}

	prof := stats.ProfileTable(table, nil)
	if prof.DurationSeconds != nil {
		info.DurationSeconds = *prof.DurationSeconds
	}
	if modes := stats.ValueCounts(table, stats.ColPresentMode); len(modes) > 0 {
		info.Metadata["present_modes"] = modes
	}
	if types := stats.ValueCounts(table, stats.ColFrameType); len(types) > 0 {
		info.Metadata["frame_types"] = types
	}
	return info
}

func uploadProfile(table *domain.Table, info domain.FileInfo) map[string]any {
	profile := make(map[string]any, len(info.Metadata)+2)
	for k, v := range info.Metadata {
		profile[k] = v
	}
	prof := stats.ProfileTable(table, &info)
	if prof.AvgFPS != nil {
		profile["avg_fps"] = *prof.AvgFPS
		profile["avg_frametime_ms"] = *prof.AvgFrameTimeMs
	}
	return profile
}
