package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/logging"
)

//nolint:gochecknoglobals // Embedded schema.
//go:embed schema.sql
var schemaSQL string

// Store implements factors.ReferenceStore over a DB.
type Store struct {
	db *DB
}

var _ factors.ReferenceStore = (*Store)(nil)

// NewStore returns a store reading through db.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *DB {
	return s.db
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.execContext(ctx, "migrate", schemaSQL); err != nil {
		return err
	}
	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "postgres").
		Str("operation", "migrate").
		Msg("schema up to date")
	return nil
}

// FindFactorsByDivisionYear implements factors.FactorStore.
func (s *Store) FindFactorsByDivisionYear(
	ctx context.Context, divisionID, divisionType string, year int,
) ([]factors.EmissionsFactor, error) {
	where, args := divisionWhere(divisionID, divisionType, year)
	var out []factors.EmissionsFactor
	err := s.db.selectContext(ctx, "factors_by_division", &out,
		"SELECT "+factorColumns+" FROM emissions_factors"+where+factorOrder, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindFactorsByScope implements factors.FactorStore.
func (s *Store) FindFactorsByScope(ctx context.Context, q factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	where, args := scopeWhere(q)
	var out []factors.EmissionsFactor
	err := s.db.selectContext(ctx, "factors_by_scope", &out,
		"SELECT "+factorColumns+" FROM emissions_factors"+where+factorOrder, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetFactor implements factors.FactorStore.
func (s *Store) GetFactor(ctx context.Context, uuid string) (*factors.EmissionsFactor, error) {
	var f factors.EmissionsFactor
	err := s.db.getContext(ctx, "factor_by_uuid", &f,
		"SELECT "+factorColumns+" FROM emissions_factors WHERE uuid = $1", uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Absent factor is not an error.
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetUtilityLookupItem implements factors.UtilityLookupStore.
func (s *Store) GetUtilityLookupItem(ctx context.Context, uuid string) (*factors.UtilityLookupItem, error) {
	var u factors.UtilityLookupItem
	err := s.db.getContext(ctx, "utility_by_uuid", &u, `SELECT uuid, year, utility_number, utility_name,
		country, state_province,
		division_id AS "division.division_id", division_type AS "division.division_type"
		FROM utility_lookup_items WHERE uuid = $1`, uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Absent utility is not an error.
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActivityFactorLookup implements factors.ActivityLookupStore.
func (s *Store) GetActivityFactorLookup(ctx context.Context, kind, class string) (*factors.ActivityFactorLookup, error) {
	key := factors.ActivityFactorLookup{Type: kind, Class: class}.Key()
	var l factors.ActivityFactorLookup
	err := s.db.getContext(ctx, "activity_lookup", &l, `SELECT type, class, scope, level_1, level_2,
		level_3, level_4, text, activity_uom
		FROM activity_factor_lookups WHERE lookup_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Absent lookup is not an error.
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Stats counts stored records per kind.
type Stats struct {
	EmissionsFactors      int `json:"emissions_factors" db:"emissions_factors"`
	Utilities             int `json:"utilities" db:"utilities"`
	ActivityFactorLookups int `json:"activity_factor_lookups" db:"activity_factor_lookups"`
}

// Stats returns record counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.getContext(ctx, "stats", &st, `SELECT
		(SELECT count(*) FROM emissions_factors) AS emissions_factors,
		(SELECT count(*) FROM utility_lookup_items) AS utilities,
		(SELECT count(*) FROM activity_factor_lookups) AS activity_factor_lookups`)
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

// Truncate removes every stored record.
func (s *Store) Truncate(ctx context.Context) error {
	return s.db.execContext(ctx, "truncate",
		"TRUNCATE emissions_factors, utility_lookup_items, activity_factor_lookups")
}
