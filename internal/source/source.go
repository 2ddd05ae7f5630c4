package source

import (
	"chatapp-client/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultPageSize is how many messages one history request asks for.
const DefaultPageSize = 20

var ErrSimulatedFailure = errors.New("simulated send failure")

// MessageSource is the backend the pagination controller and the send pipeline talk to.
type MessageSource interface {
	// FetchMessages returns up to limit messages of the channel strictly older than
	// before, newest first. A nil before means the newest messages.
	FetchMessages(ctx context.Context, channelID string, before *time.Time, limit int) ([]models.Message, error)
	// SendMessage confirms a send and returns the message as the backend stored it.
	SendMessage(ctx context.Context, channelID string, content string) (models.Message, error)
}

// Seeder provides the dataset a session starts from.
type Seeder interface {
	Seed(ctx context.Context) (models.Snapshot, error)
}

// FileSeeder reads a snapshot from a JSON file.
type FileSeeder struct {
	Path string
}

func (f FileSeeder) Seed(ctx context.Context) (models.Snapshot, error) {
	var snapshot models.Snapshot

	bytes, err := os.ReadFile(f.Path)
	if err != nil {
		return snapshot, fmt.Errorf("couldn't read seed file [%s]: %w", f.Path, err)
	}

	err = json.Unmarshal(bytes, &snapshot)
	if err != nil {
		return snapshot, fmt.Errorf("couldn't parse seed file [%s]: %w", f.Path, err)
	}

	return snapshot, nil
}
