package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wear-and-tear-backend/internal/model"
	"wear-and-tear-backend/internal/wear"
)

// Store defines the interface for all database operations.
type Store interface {
	GetConfig(ctx context.Context, publicID string) (*wear.AppConfig, error)
	ListConfigs(ctx context.Context) ([]wear.AppConfig, error)
	UpdateConfig(ctx context.Context, cfg wear.AppConfig) error
	GetRawConfig(ctx context.Context, publicID string) (*model.AssetAppConfig, error)
	PatchConfig(ctx context.Context, patch ConfigPatch) error
	UpdateItemStatuses(ctx context.Context, now time.Time, statuses []wear.Status) ([]Alert, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetConfig loads and decodes a configuration record.
func (s *gormStore) GetConfig(ctx context.Context, publicID string) (*wear.AppConfig, error) {
	raw, err := s.GetRawConfig(ctx, publicID)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeConfig(*raw)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetRawConfig loads a configuration record without decoding its sequences.
func (s *gormStore) GetRawConfig(ctx context.Context, publicID string) (*model.AssetAppConfig, error) {
	var raw model.AssetAppConfig
	err := s.db.WithContext(ctx).First(&raw, "public_id = ?", publicID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", publicID, err)
	}
	return &raw, nil
}

// ListConfigs returns every configuration record. Records whose sequences
// cannot be decoded are skipped.
func (s *gormStore) ListConfigs(ctx context.Context) ([]wear.AppConfig, error) {
	var rows []model.AssetAppConfig
	if err := s.db.WithContext(ctx).Order("public_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}

	configs := make([]wear.AppConfig, 0, len(rows))
	for _, row := range rows {
		cfg, err := decodeConfig(row)
		if err != nil {
			log.Printf("Warning: skipping config %s: %v", row.PublicID, err)
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// UpdateConfig writes both sequences of cfg in a single upsert.
func (s *gormStore) UpdateConfig(ctx context.Context, cfg wear.AppConfig) error {
	values, err := encodeRecords(cfg.Values)
	if err != nil {
		return fmt.Errorf("failed to encode values: %w", err)
	}
	stateValues, err := encodeRecords(cfg.StateValues)
	if err != nil {
		return fmt.Errorf("failed to encode state values: %w", err)
	}

	row := model.AssetAppConfig{
		PublicID:    cfg.PublicID,
		Values:      values,
		StateValues: stateValues,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "public_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"values", "state_values", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to update config %s: %w", cfg.PublicID, err)
	}
	return nil
}

// PatchConfig replaces the sequences present in patch. Each must be a JSON array.
func (s *gormStore) PatchConfig(ctx context.Context, patch ConfigPatch) error {
	updates := make(map[string]any, 2)
	if patch.Values != nil {
		if !isJSONArray(*patch.Values) {
			return fmt.Errorf("values: %w", ErrInvalidSequence)
		}
		updates["values"] = datatypes.JSON(*patch.Values)
	}
	if patch.StateValues != nil {
		if !isJSONArray(*patch.StateValues) {
			return fmt.Errorf("stateValues: %w", ErrInvalidSequence)
		}
		updates["state_values"] = datatypes.JSON(*patch.StateValues)
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&model.AssetAppConfig{}).
		Where("public_id = ?", patch.PublicID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to patch config %s: %w", patch.PublicID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// UpdateItemStatuses stores the latest wear level of every evaluated item and
// returns an alert for each item whose level escalated to warning or exceeded.
// Items with an unknown level keep their previous record; records of items
// that were not evaluated any more are removed.
func (s *gormStore) UpdateItemStatuses(ctx context.Context, now time.Time, statuses []wear.Status) ([]Alert, error) {
	current, err := s.fetchAllItemStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item statuses: %w", err)
	}

	var alerts []Alert
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range statuses {
			old, exists := current[st.ItemID]
			delete(current, st.ItemID)

			if st.Level == wear.LevelUnknown {
				continue
			}

			oldSeverity := 0
			if exists {
				oldSeverity = wear.Level(old.Level).Severity()
			}
			if st.Level.Severity() > oldSeverity && st.Level.Severity() >= wear.LevelWarning.Severity() {
				alerts = append(alerts, Alert{
					ItemID:    st.ItemID,
					ConfigID:  st.ConfigID,
					Name:      st.Name,
					Level:     st.Level,
					Usage:     st.Usage,
					Remaining: st.Remaining,
				})
			}

			record := model.ItemStatus{
				ItemID:     st.ItemID,
				ConfigID:   st.ConfigID,
				Name:       st.Name,
				Level:      string(st.Level),
				Usage:      st.Usage,
				Remaining:  st.Remaining,
				ObservedAt: now,
			}
			if err := tx.Save(&record).Error; err != nil {
				return fmt.Errorf("failed to save status for item %s: %w", st.ItemID, err)
			}
		}

		for itemID := range current {
			if err := tx.Delete(&model.ItemStatus{}, "item_id = ?", itemID).Error; err != nil {
				return fmt.Errorf("failed to delete status for item %s: %w", itemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *gormStore) fetchAllItemStatuses(ctx context.Context) (map[string]model.ItemStatus, error) {
	var rows []model.ItemStatus
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	statusMap := make(map[string]model.ItemStatus, len(rows))
	for _, r := range rows {
		statusMap[r.ItemID] = r
	}
	return statusMap, nil
}

func decodeConfig(row model.AssetAppConfig) (wear.AppConfig, error) {
	values, err := decodeRecords(row.Values)
	if err != nil {
		return wear.AppConfig{}, fmt.Errorf("invalid values: %w", err)
	}
	stateValues, err := decodeRecords(row.StateValues)
	if err != nil {
		return wear.AppConfig{}, fmt.Errorf("invalid stateValues: %w", err)
	}
	return wear.AppConfig{PublicID: row.PublicID, Values: values, StateValues: stateValues}, nil
}

func decodeRecords(raw datatypes.JSON) ([]wear.Record, error) {
	records := []wear.Record{}
	if len(raw) == 0 || string(raw) == "null" {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func encodeRecords(records []wear.Record) (datatypes.JSON, error) {
	if records == nil {
		records = []wear.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func isJSONArray(s string) bool {
	var arr []json.RawMessage
	return json.Unmarshal([]byte(s), &arr) == nil
}
