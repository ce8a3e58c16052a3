package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"wear-and-tear-backend/internal/ixapi"
	"wear-and-tear-backend/internal/metrics"
	"wear-and-tear-backend/internal/wear"
)

// ConfigStore reads and persists configuration records.
type ConfigStore interface {
	GetConfig(ctx context.Context, publicID string) (*wear.AppConfig, error)
	ListConfigs(ctx context.Context) ([]wear.AppConfig, error)
	UpdateConfig(ctx context.Context, cfg wear.AppConfig) error
}

// PlatformAPI is the direct configuration API. ResetItem reads and writes the
// live state through it instead of the already loaded record.
type PlatformAPI interface {
	GetAssetAppConfig(ctx context.Context, publicID string, fields ...string) (*ixapi.AssetAppConfig, error)
	PatchAssetAppConfig(ctx context.Context, cfg ixapi.AssetAppConfig) error
}

// Service translates item operations into updates of a configuration
// record's values and stateValues sequences.
type Service struct {
	store   ConfigStore
	api     PlatformAPI
	source  wear.SampleSource
	tr      wear.Translator
	metrics *metrics.Metrics
	newID   func() string
}

// New creates the item service. source and tr may be nil when item status is
// not needed.
func New(store ConfigStore, api PlatformAPI, source wear.SampleSource, tr wear.Translator, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		api:     api,
		source:  source,
		tr:      tr,
		metrics: m,
		newID:   uuid.NewString,
	}
}

// Items returns the merged items of one configuration record.
func (s *Service) Items(ctx context.Context, configID string) ([]wear.Item, error) {
	cfg, err := s.store.GetConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	return wear.MergeConfig(cfg), nil
}

// ItemsForList returns the merged items of every configuration record.
func (s *Service) ItemsForList(ctx context.Context) ([]wear.Item, error) {
	cfgs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}
	return wear.MergeConfigs(cfgs), nil
}

// Item returns a single merged item. The boolean is false when no item with
// id exists in the record.
func (s *Service) Item(ctx context.Context, configID, id string) (wear.Item, bool, error) {
	items, err := s.Items(ctx, configID)
	if err != nil {
		return wear.Item{}, false, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return wear.Item{}, false, nil
}

// AddItem appends data under a freshly generated id to values and the bare id
// to stateValues, then persists both sequences in one write.
func (s *Service) AddItem(ctx context.Context, cfg wear.AppConfig, data wear.Record) (string, error) {
	id := s.newID()
	data.ID = id
	data.ClearWarningLimit = false

	next := wear.AppConfig{
		PublicID:    cfg.PublicID,
		Values:      append(cloneRecords(cfg.Values), data),
		StateValues: append(cloneRecords(cfg.StateValues), wear.Record{ID: id}),
	}
	err := s.store.UpdateConfig(ctx, next)
	s.metrics.ItemOp("add", err)
	if err != nil {
		return "", fmt.Errorf("failed to add item to config %s: %w", cfg.PublicID, err)
	}
	return id, nil
}

// UpdateItem merges update into the value entry with id. The id and the reset
// date cannot be changed this way. The record is persisted even when no entry
// matches.
func (s *Service) UpdateItem(ctx context.Context, cfg wear.AppConfig, id string, update wear.Record) error {
	update.ID = ""
	update.ResetOn = nil

	values := cloneRecords(cfg.Values)
	found := false
	for i := range values {
		if values[i].ID == id {
			values[i] = values[i].Merge(update)
			found = true
			break
		}
	}
	if !found {
		log.Printf("Warning: item %s not found in config %s, persisting unchanged values", id, cfg.PublicID)
	}

	err := s.store.UpdateConfig(ctx, wear.AppConfig{
		PublicID:    cfg.PublicID,
		Values:      values,
		StateValues: cloneRecords(cfg.StateValues),
	})
	s.metrics.ItemOp("update", err)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return nil
}

// RemoveItem drops the entries with id from both sequences.
func (s *Service) RemoveItem(ctx context.Context, cfg wear.AppConfig, id string) error {
	err := s.store.UpdateConfig(ctx, wear.AppConfig{
		PublicID:    cfg.PublicID,
		Values:      withoutID(cfg.Values, id),
		StateValues: withoutID(cfg.StateValues, id),
	})
	s.metrics.ItemOp("remove", err)
	if err != nil {
		return fmt.Errorf("failed to remove item %s: %w", id, err)
	}
	return nil
}

// ResetItem sets resetOn (epoch milliseconds) on the live state entry with id
// and writes back only stateValues. Keys it does not know about are kept.
func (s *Service) ResetItem(ctx context.Context, configID, id string, resetOn int64) error {
	err := s.resetItem(ctx, configID, id, resetOn)
	s.metrics.ItemOp("reset", err)
	return err
}

func (s *Service) resetItem(ctx context.Context, configID, id string, resetOn int64) error {
	live, err := s.api.GetAssetAppConfig(ctx, configID, "publicId", "stateValues")
	if err != nil {
		return fmt.Errorf("failed to fetch state of config %s: %w", configID, err)
	}
	if live.StateValues == nil || strings.TrimSpace(*live.StateValues) == "" {
		log.Printf("Config %s has no state values, nothing to reset", configID)
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(*live.StateValues))
	dec.UseNumber()
	var entries []map[string]any
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("failed to parse state values of config %s: %w", configID, err)
	}

	found := false
	for _, entry := range entries {
		if entry["_id"] == id {
			entry["resetOn"] = resetOn
			found = true
		}
	}
	if !found {
		log.Printf("Warning: item %s has no state entry in config %s", id, configID)
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode state values: %w", err)
	}
	state := string(payload)
	if err := s.api.PatchAssetAppConfig(ctx, ixapi.AssetAppConfig{PublicID: configID, StateValues: &state}); err != nil {
		return fmt.Errorf("failed to write state of config %s: %w", configID, err)
	}
	return nil
}

// ItemStatus queries the item's metric and evaluates its wear. Missing data
// yields an unknown status rather than an error.
func (s *Service) ItemStatus(ctx context.Context, item wear.Item, now time.Time) (wear.Status, error) {
	if s.source == nil || item.Metric.Selector == "" {
		return wear.UnknownStatus(item), nil
	}
	samples, err := s.source.Query(ctx, wear.BuildQuery(item, now, s.tr))
	if err != nil {
		return wear.UnknownStatus(item), fmt.Errorf("failed to query samples for item %s: %w", item.ID, err)
	}
	progression, ok := wear.ResolveProgression(item, samples)
	if !ok {
		return wear.UnknownStatus(item), nil
	}
	return wear.Evaluate(item, progression), nil
}

func cloneRecords(records []wear.Record) []wear.Record {
	out := make([]wear.Record, len(records))
	copy(out, records)
	return out
}

func withoutID(records []wear.Record, id string) []wear.Record {
	out := make([]wear.Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
