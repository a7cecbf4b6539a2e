package poller

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pawsignal-hq/whistle-tracker/internal/domain"
	"github.com/pawsignal-hq/whistle-tracker/internal/logger"
	"github.com/pawsignal-hq/whistle-tracker/internal/storage"
	"github.com/pawsignal-hq/whistle-tracker/pkg/publishers"
)

// Service performs one tracking pass: list the account's pets, fetch each
// pet's daily summaries, and publish the ones not seen before.
type Service struct {
	client ActivityClient
	fanout EventPublisher
	store  storage.Store
	log    logger.Logger
	watch  map[int64]struct{}
}

// NewService wires a poller. watchIDs restricts tracking to those pet ids;
// empty means every pet on the account.
func NewService(client ActivityClient, fanout EventPublisher, log logger.Logger, store storage.Store, watchIDs []int64) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	var watch map[int64]struct{}
	if len(watchIDs) > 0 {
		watch = make(map[int64]struct{}, len(watchIDs))
		for _, id := range watchIDs {
			watch[id] = struct{}{}
		}
	}
	return &Service{
		client: client,
		fanout: fanout,
		store:  store,
		log:    log,
		watch:  watch,
	}
}

// Run executes a tracking pass across all watched pets. Per-pet failures are
// aggregated; one pet's error never aborts the others.
func (s *Service) Run(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("poller service is not initialized")
	}

	pets, err := s.listPets(ctx)
	if err != nil {
		return fmt.Errorf("list pets: %w", err)
	}
	if len(pets) == 0 {
		s.log.WarnObj("no pets on account; nothing to track", "pets_count", 0)
		return nil
	}

	var errs []error
	for _, pet := range pets {
		if !s.watched(pet.ID) {
			continue
		}
		if err := s.runPet(ctx, pet); err != nil {
			errs = append(errs, fmt.Errorf("pet %d: %w", pet.ID, err))
			s.log.ErrorObj("pet pass failed", "pet_error", map[string]any{
				"pet_id": pet.ID,
				"error":  err.Error(),
			})
		}
	}
	return errors.Join(errs...)
}

func (s *Service) watched(id int64) bool {
	if s.watch == nil {
		return true
	}
	_, ok := s.watch[id]
	return ok
}

// listPets fetches and decodes the account's pets.
func (s *Service) listPets(ctx context.Context) ([]domain.Pet, error) {
	raw, err := s.client.Pets(ctx)
	if err != nil {
		return nil, err
	}
	return domain.DecodePets(raw)
}

// runPet fetches the pet's dailies and publishes the unseen ones.
func (s *Service) runPet(ctx context.Context, pet domain.Pet) error {
	raw, err := s.client.Dailies(ctx, strconv.FormatInt(pet.ID, 10), nil, nil)
	if err != nil {
		return fmt.Errorf("fetch dailies: %w", err)
	}

	dailies, err := domain.DecodeDailies(raw)
	if err != nil {
		return err
	}

	published := 0
	var errs []error
	for _, daily := range dailies {
		evt := publishers.NewDailyEvent(pet, daily)
		key := evt.DedupeKey()

		seen, err := s.store.SeenEvent(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("seen check: %w", err))
			continue
		}
		if seen {
			continue
		}

		count, err := s.fanout.Publish(ctx, evt)
		if err != nil && count == 0 {
			// Every sink rejected it; leave unmarked so the next pass retries.
			errs = append(errs, fmt.Errorf("publish day %d: %w", daily.DayNumber, err))
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
		if err := s.store.MarkEvent(key); err != nil {
			errs = append(errs, fmt.Errorf("mark event: %w", err))
		}
		published++
	}

	s.log.InfoObj("pet pass completed", "pet_result", map[string]any{
		"pet_id":           pet.ID,
		"dailies_fetched":  len(dailies),
		"events_published": published,
	})
	return errors.Join(errs...)
}
