package storage

import "propscan/models"

// PropertyWriter is the interface any export backend must satisfy.
type PropertyWriter interface {
	Write(props []*models.CanonicalProperty) error
	Close() error
}

// PropertyReader reads back a previously exported snapshot.
type PropertyReader interface {
	FetchAll() ([]*models.CanonicalProperty, error)
}

var (
	_ PropertyWriter = (*CSVWriter)(nil)
	_ PropertyWriter = (*PostgresWriter)(nil)
	_ PropertyReader = (*PostgresWriter)(nil)
)
