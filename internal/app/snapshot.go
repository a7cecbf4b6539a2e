package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pawsignal-hq/whistle-tracker/internal/config"
	"github.com/pawsignal-hq/whistle-tracker/internal/domain"
	"github.com/pawsignal-hq/whistle-tracker/internal/logger"
	"github.com/pawsignal-hq/whistle-tracker/pkg/httpclient"
	"github.com/pawsignal-hq/whistle-tracker/pkg/whistle"
)

// Snapshot is the one-shot runtime: log in, pull the account's current state
// (pets, places, per-pet stats and achievements), and write an indented JSON
// report. Useful for checking credentials and eyeballing what the tracker
// would see.
type Snapshot struct {
	cfg    *config.Config
	client *whistle.Client
	log    logger.Logger
	out    io.Writer
}

// petReport is one pet's slice of the snapshot.
type petReport struct {
	Pet          domain.Pet      `json:"pet"`
	Stats        json.RawMessage `json:"stats,omitempty"`
	Achievements json.RawMessage `json:"achievements,omitempty"`
}

// report is the full snapshot document.
type report struct {
	Pets   []petReport     `json:"pets"`
	Places json.RawMessage `json:"places,omitempty"`
}

// NewSnapshot builds the one-shot runtime and logs the client in.
func NewSnapshot(ctx context.Context, cfg *config.Config, log logger.Logger) (*Snapshot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	session := httpclient.NewRestyHTTPClient(cfg.HTTPTimeout)
	client := whistle.New(cfg.WhistleEmail, cfg.WhistlePassword, session)
	apiCfg := whistle.Config{
		Scheme:  cfg.APIScheme,
		Host:    cfg.APIHost,
		APIPath: cfg.APIPath,
	}
	if err := client.Init(ctx, &apiCfg); err != nil {
		return nil, fmt.Errorf("init whistle client: %w", err)
	}

	return &Snapshot{
		cfg:    cfg,
		client: client,
		log:    log,
		out:    os.Stdout,
	}, nil
}

// Run fetches the account state and writes the report. Per-pet detail
// failures are logged and leave gaps rather than aborting the report.
func (s *Snapshot) Run(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("snapshot is not initialized")
	}

	rawPets, err := s.client.Pets(ctx)
	if err != nil {
		return fmt.Errorf("fetch pets: %w", err)
	}
	pets, err := domain.DecodePets(rawPets)
	if err != nil {
		return err
	}

	doc := report{Pets: make([]petReport, 0, len(pets))}

	if places, err := s.client.Places(ctx); err != nil {
		s.log.WarnObj("places fetch failed", "error", err)
	} else {
		doc.Places = places
	}

	for _, pet := range pets {
		entry := petReport{Pet: pet}
		id := strconv.FormatInt(pet.ID, 10)

		if stats, err := s.client.Stats(ctx, id); err != nil {
			s.log.WarnObj("stats fetch failed", "pet_id", pet.ID)
		} else {
			entry.Stats = stats
		}
		if achievements, err := s.client.Achievements(ctx, id); err != nil {
			s.log.WarnObj("achievements fetch failed", "pet_id", pet.ID)
		} else {
			entry.Achievements = achievements
		}
		doc.Pets = append(doc.Pets, entry)
	}

	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
