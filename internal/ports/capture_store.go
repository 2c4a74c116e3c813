package ports

import (
	"context"
	"errors"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrFileNotFound    = errors.New("file not found")
)

// CaptureStore is the read side of the capture store used by analysis code.
// Returned tables are immutable and safe to share between goroutines.
type CaptureStore interface {
	Table(ctx context.Context, sessionID, fileID string) (*domain.Table, error)
	FileInfo(ctx context.Context, sessionID, fileID string) (*domain.FileInfo, error)
	// DefaultFileID returns the most recently uploaded file of a session.
	DefaultFileID(ctx context.Context, sessionID string) (string, error)
}
