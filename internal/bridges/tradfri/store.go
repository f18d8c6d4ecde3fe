package tradfri

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StoredGateway is a gateway's persisted pairing.
type StoredGateway struct {
	Name        string
	Host        string
	Credentials Credentials
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists gateway pairings and rejected accessories in SQLite.
// The schema comes from the embedded migrations.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store on an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// GetGateway loads the pairing for a gateway name.
// Returns ErrCredentialsNotFound if the gateway was never paired.
func (s *Store) GetGateway(ctx context.Context, name string) (*StoredGateway, error) {
	query := `
		SELECT name, host, identity, psk, created_at, updated_at
		FROM gateways
		WHERE name = ?`

	var (
		gw                   StoredGateway
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&gw.Name, &gw.Host, &gw.Credentials.Identity, &gw.Credentials.PSK, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
		}
		return nil, fmt.Errorf("querying gateway %s: %w", name, err)
	}

	gw.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // written by SaveGateway
	gw.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // written by SaveGateway
	return &gw, nil
}

// SaveGateway stores or replaces a gateway's pairing.
func (s *Store) SaveGateway(ctx context.Context, name, host string, creds Credentials) error {
	if name == "" {
		return fmt.Errorf("gateway name is required")
	}
	now := s.now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO gateways (name, host, identity, psk, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			host = excluded.host,
			identity = excluded.identity,
			psk = excluded.psk,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, name, host, creds.Identity, creds.PSK, now, now); err != nil {
		return fmt.Errorf("saving gateway %s: %w", name, err)
	}
	return nil
}

// SaveUnsupported records a rejected accessory. The first record for an
// accessory is kept.
func (s *Store) SaveUnsupported(ctx context.Context, gateway string, e UnsupportedEntry) error {
	query := `
		INSERT OR IGNORE INTO unsupported_accessories
			(gateway, accessory_id, name, type_code, reason, first_seen)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		gateway, e.AccessoryID, e.Name, int(e.Type), e.Reason, e.FirstSeen.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving unsupported accessory %d: %w", e.AccessoryID, err)
	}
	return nil
}

// ListUnsupported returns the rejected accessories recorded for a gateway.
func (s *Store) ListUnsupported(ctx context.Context, gateway string) ([]UnsupportedEntry, error) {
	query := `
		SELECT accessory_id, name, type_code, reason, first_seen
		FROM unsupported_accessories
		WHERE gateway = ?
		ORDER BY accessory_id`

	rows, err := s.db.QueryContext(ctx, query, gateway)
	if err != nil {
		return nil, fmt.Errorf("querying unsupported accessories: %w", err)
	}
	defer rows.Close()

	var entries []UnsupportedEntry
	for rows.Next() {
		var (
			e         UnsupportedEntry
			typeCode  int
			firstSeen string
		)
		if err := rows.Scan(&e.AccessoryID, &e.Name, &typeCode, &e.Reason, &firstSeen); err != nil {
			return nil, fmt.Errorf("scanning unsupported accessory: %w", err)
		}
		e.Type = AccessoryType(typeCode)
		e.Category = e.Type.String()
		e.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen) //nolint:errcheck // written by SaveUnsupported
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unsupported accessories: %w", err)
	}
	return entries, nil
}
