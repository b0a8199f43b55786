package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"propscan/models"
	"propscan/utils"
)

// upsertColumns must stay in the order insertBatch appends arguments.
var upsertColumns = []string{
	"resolved_id", "resolution", "source", "source_kind",
	"address", "city", "state", "zip", "price",
	"beds", "baths", "sqft", "property_type", "units",
	"monthly_rent", "mortgage", "cash_flow", "rent_to_price", "rent_estimated",
	"score", "grade", "factors",
}

// PostgresWriter persists the scored snapshot to PostgreSQL, one row per
// resolved property.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, waiting for it to come
// up, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	if logger == nil {
		logger = utils.Discard()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 6, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scored_properties (
			resolved_id    TEXT          PRIMARY KEY,
			resolution     VARCHAR(32)   NOT NULL,
			source         TEXT          NOT NULL,
			source_kind    VARCHAR(32)   NOT NULL DEFAULT '',
			address        TEXT          NOT NULL DEFAULT '',
			city           TEXT          NOT NULL DEFAULT '',
			state          VARCHAR(8)    NOT NULL DEFAULT '',
			zip            VARCHAR(16)   NOT NULL DEFAULT '',
			price          NUMERIC(14,2) NOT NULL DEFAULT 0,
			beds           INTEGER       NOT NULL DEFAULT 0,
			baths          NUMERIC(5,1)  NOT NULL DEFAULT 0,
			sqft           INTEGER       NOT NULL DEFAULT 0,
			property_type  TEXT          NOT NULL DEFAULT '',
			units          INTEGER       NOT NULL DEFAULT 0,
			monthly_rent   NUMERIC(12,2),
			mortgage       NUMERIC(12,2),
			cash_flow      NUMERIC(12,2),
			rent_to_price  NUMERIC(8,4),
			rent_estimated BOOLEAN       NOT NULL DEFAULT FALSE,
			score          NUMERIC(5,2)  NOT NULL DEFAULT 0,
			grade          CHAR(1)       NOT NULL DEFAULT 'D',
			factors        JSONB         NOT NULL DEFAULT '{}',
			updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_scored_properties_score ON scored_properties(score DESC);
		CREATE INDEX IF NOT EXISTS idx_scored_properties_grade ON scored_properties(grade);
		CREATE INDEX IF NOT EXISTS idx_scored_properties_state ON scored_properties(state);
	`)
	return err
}

// Write upserts props by resolved ID. Unscored properties and repeated IDs
// are skipped, since a single INSERT cannot touch the same key twice.
func (pw *PostgresWriter) Write(props []*models.CanonicalProperty) error {
	seen := utils.NewKeySet()
	rows := make([]*models.CanonicalProperty, 0, len(props))
	for _, p := range props {
		if p.ResolvedID == "" || p.Score == nil || !seen.Add(p.ResolvedID) {
			continue
		}
		rows = append(rows, p)
	}
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		if err := pw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	pw.logger.Debug("[postgres] Upserted %d properties", len(rows))
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.CanonicalProperty) error {
	args := make([]any, 0, len(batch)*len(upsertColumns))
	for _, p := range batch {
		factors, err := json.Marshal(p.Score.Factors)
		if err != nil {
			return fmt.Errorf("postgres: encode factors for %s: %w", p.ResolvedID, err)
		}
		args = append(args,
			p.ResolvedID, string(p.Provenance.ResolutionOutcome), p.Provenance.Source, p.Provenance.SourceKind,
			p.Address, p.City, p.State, p.Zip, p.Price,
			p.Specs.Beds, p.Specs.Baths, p.Specs.Sqft, p.Specs.PropertyType, p.Score.EstimatedUnits,
			p.Financials.MonthlyRent, p.Financials.EstimatedMortgage, p.Financials.CashFlow, p.Financials.RentToPriceRatio,
			p.Provenance.Estimated.MonthlyRent,
			p.Score.Value, string(p.Score.Grade), string(factors),
		)
	}

	if _, err := pw.db.Exec(upsertQuery(len(batch)), args...); err != nil {
		return fmt.Errorf("postgres: upsert batch: %w", err)
	}
	return nil
}

// upsertQuery builds a multi-row INSERT ... ON CONFLICT for n rows.
func upsertQuery(n int) string {
	width := len(upsertColumns)
	values := make([]string, 0, n)
	for row := 0; row < n; row++ {
		ph := make([]string, width)
		for col := range ph {
			ph[col] = fmt.Sprintf("$%d", row*width+col+1)
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
	}

	updates := make([]string, 0, width)
	for _, c := range upsertColumns[1:] {
		updates = append(updates, c+" = EXCLUDED."+c)
	}
	updates = append(updates, "updated_at = NOW()")

	return fmt.Sprintf(`
		INSERT INTO scored_properties (%s)
		VALUES %s
		ON CONFLICT (resolved_id) DO UPDATE SET %s
	`, strings.Join(upsertColumns, ", "), strings.Join(values, ","), strings.Join(updates, ", "))
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll reads the stored snapshot back, best score first.
func (pw *PostgresWriter) FetchAll() ([]*models.CanonicalProperty, error) {
	rows, err := pw.db.Query(`
		SELECT ` + strings.Join(upsertColumns, ", ") + `
		FROM scored_properties
		ORDER BY score DESC, resolved_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var props []*models.CanonicalProperty
	for rows.Next() {
		p := &models.CanonicalProperty{Score: &models.Score{}}
		var (
			resolution, grade, factors            string
			rent, mortgage, cashFlow, rentToPrice sql.NullFloat64
		)
		if err := rows.Scan(
			&p.ResolvedID, &resolution, &p.Provenance.Source, &p.Provenance.SourceKind,
			&p.Address, &p.City, &p.State, &p.Zip, &p.Price,
			&p.Specs.Beds, &p.Specs.Baths, &p.Specs.Sqft, &p.Specs.PropertyType, &p.Score.EstimatedUnits,
			&rent, &mortgage, &cashFlow, &rentToPrice,
			&p.Provenance.Estimated.MonthlyRent,
			&p.Score.Value, &grade, &factors,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		p.Provenance.ResolutionOutcome = models.ResolutionOutcome(resolution)
		p.Score.Grade = models.Grade(grade)
		if err := json.Unmarshal([]byte(factors), &p.Score.Factors); err != nil {
			return nil, fmt.Errorf("postgres: decode factors for %s: %w", p.ResolvedID, err)
		}
		p.Financials = models.Financials{
			MonthlyRent:       nullable(rent),
			EstimatedMortgage: nullable(mortgage),
			CashFlow:          nullable(cashFlow),
			RentToPriceRatio:  nullable(rentToPrice),
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return models.Float(n.Float64)
}
