package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rshade/carbonledger/internal/engine/batch"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/logging"
)

// ImportOptions tunes Import.
type ImportOptions struct {
	// ChunkSize is the number of records per transaction.
	ChunkSize int

	// Concurrency is the number of chunks written in parallel. Values above
	// one make the winner between duplicate natural keys in different
	// chunks nondeterministic.
	Concurrency int

	// OnProgress is called after each committed chunk.
	OnProgress func(batch.ProgressSnapshot)
}

// factorRow adds the natural key column to an emissions factor.
type factorRow struct {
	factors.EmissionsFactor
	NaturalKey string `db:"natural_key"`
}

type lookupRow struct {
	factors.ActivityFactorLookup
	LookupKey string `db:"lookup_key"`
}

const deleteShadowedFactor = `DELETE FROM emissions_factors WHERE uuid = :uuid AND natural_key <> :natural_key`

const upsertFactor = `INSERT INTO emissions_factors (
	uuid, natural_key, type, scope, level_1, level_2, level_3, level_4, text,
	year, from_year, thru_year, country, division_type, division_id, division_name,
	activity_uom, net_generation, net_generation_uom, co2_equivalent_emissions,
	co2_equivalent_emissions_uom, source, non_renewables, renewables, percent_of_renewables
) VALUES (
	:uuid, :natural_key, :type, :scope, :level_1, :level_2, :level_3, :level_4, :text,
	:year, :from_year, :thru_year, :country, :division_type, :division_id, :division_name,
	:activity_uom, :net_generation, :net_generation_uom, :co2_equivalent_emissions,
	:co2_equivalent_emissions_uom, :source, :non_renewables, :renewables, :percent_of_renewables
) ON CONFLICT (natural_key) DO UPDATE SET
	uuid = EXCLUDED.uuid,
	type = EXCLUDED.type,
	scope = EXCLUDED.scope,
	level_1 = EXCLUDED.level_1,
	level_2 = EXCLUDED.level_2,
	level_3 = EXCLUDED.level_3,
	level_4 = EXCLUDED.level_4,
	text = EXCLUDED.text,
	year = EXCLUDED.year,
	from_year = EXCLUDED.from_year,
	thru_year = EXCLUDED.thru_year,
	country = EXCLUDED.country,
	division_type = EXCLUDED.division_type,
	division_id = EXCLUDED.division_id,
	division_name = EXCLUDED.division_name,
	activity_uom = EXCLUDED.activity_uom,
	net_generation = EXCLUDED.net_generation,
	net_generation_uom = EXCLUDED.net_generation_uom,
	co2_equivalent_emissions = EXCLUDED.co2_equivalent_emissions,
	co2_equivalent_emissions_uom = EXCLUDED.co2_equivalent_emissions_uom,
	source = EXCLUDED.source,
	non_renewables = EXCLUDED.non_renewables,
	renewables = EXCLUDED.renewables,
	percent_of_renewables = EXCLUDED.percent_of_renewables`

const upsertUtility = `INSERT INTO utility_lookup_items (
	uuid, year, utility_number, utility_name, country, state_province, division_id, division_type
) VALUES (
	:uuid, :year, :utility_number, :utility_name, :country, :state_province,
	:division.division_id, :division.division_type
) ON CONFLICT (uuid) DO UPDATE SET
	year = EXCLUDED.year,
	utility_number = EXCLUDED.utility_number,
	utility_name = EXCLUDED.utility_name,
	country = EXCLUDED.country,
	state_province = EXCLUDED.state_province,
	division_id = EXCLUDED.division_id,
	division_type = EXCLUDED.division_type`

const upsertLookup = `INSERT INTO activity_factor_lookups (
	lookup_key, type, class, scope, level_1, level_2, level_3, level_4, text, activity_uom
) VALUES (
	:lookup_key, :type, :class, :scope, :level_1, :level_2, :level_3, :level_4, :text, :activity_uom
) ON CONFLICT (lookup_key) DO UPDATE SET
	type = EXCLUDED.type,
	class = EXCLUDED.class,
	scope = EXCLUDED.scope,
	level_1 = EXCLUDED.level_1,
	level_2 = EXCLUDED.level_2,
	level_3 = EXCLUDED.level_3,
	level_4 = EXCLUDED.level_4,
	text = EXCLUDED.text,
	activity_uom = EXCLUDED.activity_uom`

// Import upserts records in chunked transactions. Emissions factors are
// keyed by natural key, so re-importing a dataset with fresh UUIDs replaces
// rows instead of duplicating them. Every record is validated before the
// first write; a failing chunk rolls back and stops the import, leaving
// earlier chunks committed.
func (s *Store) Import(ctx context.Context, records []factors.Record, opts ImportOptions) (batch.ProgressSnapshot, error) {
	for i, r := range records {
		if err := factors.ValidateRecord(r); err != nil {
			return batch.ProgressSnapshot{}, fmt.Errorf("record %d: %w", i, err)
		}
	}

	size := opts.ChunkSize
	if size == 0 {
		size = batch.DefaultChunkSize
	}
	runOpts := []batch.Option{batch.WithConcurrency(opts.Concurrency)}
	if opts.OnProgress != nil {
		runOpts = append(runOpts, batch.WithProgress(opts.OnProgress))
	}
	runner, err := batch.New[factors.Record](size, runOpts...)
	if err != nil {
		return batch.ProgressSnapshot{}, err
	}

	snap, err := runner.Run(ctx, records, s.importChunk)
	if err != nil {
		return snap, fmt.Errorf("importing records: %w", err)
	}

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "postgres").
		Str("operation", "import").
		Int("records", snap.DoneItems).
		Int("chunks", snap.DoneChunks).
		Dur("elapsed", snap.Elapsed).
		Msg("import complete")
	return snap, nil
}

func (s *Store) importChunk(ctx context.Context, chunk []factors.Record, _ int) error {
	start := time.Now()
	err := s.writeChunk(ctx, chunk)
	return s.db.finish(ctx, "import_chunk", start, err)
}

func (s *Store) writeChunk(ctx context.Context, chunk []factors.Record) (err error) {
	tx, err := s.db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range chunk {
		if err = writeRecord(ctx, tx, r); err != nil {
			return fmt.Errorf("%s %s: %w", r.Kind(), r.Key(), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func writeRecord(ctx context.Context, tx *sqlx.Tx, r factors.Record) error {
	switch v := r.(type) {
	case factors.EmissionsFactor:
		row := factorRow{EmissionsFactor: v, NaturalKey: v.NaturalKey()}
		if _, err := tx.NamedExecContext(ctx, deleteShadowedFactor, row); err != nil {
			return err
		}
		_, err := tx.NamedExecContext(ctx, upsertFactor, row)
		return err
	case factors.UtilityLookupItem:
		_, err := tx.NamedExecContext(ctx, upsertUtility, v)
		return err
	case factors.ActivityFactorLookup:
		_, err := tx.NamedExecContext(ctx, upsertLookup, lookupRow{ActivityFactorLookup: v, LookupKey: v.Key()})
		return err
	default:
		return fmt.Errorf("%w: unsupported record %T", factors.ErrInvalidRecord, r)
	}
}
