package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

const (
	ExecutionsBucket  = "executions"
	DeploymentsBucket = "deployments"

	DefaultDBPath = "./data/liquidity-agent.db"
)

// ExecutionRecord journals one executed intent sequence.
type ExecutionRecord struct {
	ID        string                  `json:"id"`
	Operation string                  `json:"operation"`
	Pool      string                  `json:"pool,omitempty"`
	Position  string                  `json:"position,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	Report    *domain.ExecutionReport `json:"report"`
}

// DeploymentRecord tracks a position this service opened, keyed by position address.
type DeploymentRecord struct {
	Position   string                `json:"position"`
	Pool       string                `json:"pool"`
	Owner      string                `json:"owner"`
	MinBinID   int32                 `json:"minBinId"`
	MaxBinID   int32                 `json:"maxBinId"`
	AmountX    uint64                `json:"amountX"`
	AmountY    uint64                `json:"amountY"`
	Status     domain.PositionStatus `json:"status"`
	Signatures []string              `json:"signatures,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[JournalStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) RecordExecution(rec *ExecutionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	return s.db.Set(ExecutionsBucket, []byte(rec.ID), data)
}

// ListExecutions returns up to limit records, newest first. A non-positive limit returns all.
func (s *Storage) ListExecutions(limit int) ([]*ExecutionRecord, error) {
	data, err := s.db.List(ExecutionsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	records := make([]*ExecutionRecord, 0, len(data))
	for id, value := range data {
		var rec ExecutionRecord
		if err := sonic.Unmarshal(value, &rec); err != nil {
			log.Warn().Str("id", id).Err(err).Msg("[JournalStorage] failed to unmarshal execution, skipping")
			continue
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SaveDeployments writes records in a single batch.
func (s *Storage) SaveDeployments(records []*DeploymentRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := s.db.NewBatch()
	for _, rec := range records {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		data, err := sonic.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal deployment %s: %w", rec.Position, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(DeploymentsBucket),
			Key:    []byte(rec.Position),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add deployment %s to batch: %w", rec.Position, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(records)).Msg("[JournalStorage] FAILED to execute batch")
		return err
	}
	return nil
}

func (s *Storage) ListDeployments() ([]*DeploymentRecord, error) {
	data, err := s.db.List(DeploymentsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	records := make([]*DeploymentRecord, 0, len(data))
	for position, value := range data {
		var rec DeploymentRecord
		if err := sonic.Unmarshal(value, &rec); err != nil {
			log.Warn().Str("position", position).Err(err).Msg("[JournalStorage] failed to unmarshal deployment, skipping")
			continue
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

// MarkDeploymentStatus updates the status of a journaled position. Unknown positions are ignored.
func (s *Storage) MarkDeploymentStatus(position string, status domain.PositionStatus, signature string) error {
	records, err := s.ListDeployments()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Position != position {
			continue
		}
		rec.Status = status
		if signature != "" {
			rec.Signatures = append(rec.Signatures, signature)
		}
		return s.SaveDeployments([]*DeploymentRecord{rec})
	}
	return nil
}
