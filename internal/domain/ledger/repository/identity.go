package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// scanID reads a single-id row, reporting absence instead of ErrNoRows.
func scanID(row pgx.Row) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := row.Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// resolveSource returns the id for a named source, creating it on first
// sight. The insert tolerates a concurrent winner and re-reads.
func (r *Repository) resolveSource(ctx context.Context, q querier, name, sourceType string) (uuid.UUID, error) {
	const selectSQL = `SELECT id FROM sources WHERE name = $1`

	id, found, err := scanID(q.QueryRow(ctx, selectSQL, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up source %q: %w", name, err)
	}
	if found {
		return id, nil
	}

	id = uuid.New()
	tag, err := q.Exec(ctx,
		`INSERT INTO sources (id, name, source_type) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		id, name, sourceType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create source %q: %w", name, err)
	}
	if tag.RowsAffected() == 1 {
		return id, nil
	}

	id, found, err = scanID(q.QueryRow(ctx, selectSQL, name))
	if err != nil || !found {
		return uuid.Nil, fmt.Errorf("source %q vanished after conflicting insert: %w", name, err)
	}
	return id, nil
}

// resolveClient finds or creates a client identity. Lookup order is external
// id first, then case-insensitive name preferring the most recent row, then
// a fresh insert that tolerates losing a concurrent race.
func (r *Repository) resolveClient(ctx context.Context, q querier, sourceID uuid.UUID, externalID, name string) (uuid.UUID, error) {
	lookup := func() (uuid.UUID, bool, error) {
		if externalID != "" {
			id, found, err := scanID(q.QueryRow(ctx,
				`SELECT id FROM clients WHERE source_id = $1 AND external_id = $2`,
				sourceID, externalID))
			if err != nil || found {
				return id, found, err
			}
		}
		if name != "" {
			return scanID(q.QueryRow(ctx,
				`SELECT id FROM clients
				 WHERE source_id = $1 AND lower(name) = lower($2)
				 ORDER BY created_at DESC LIMIT 1`,
				sourceID, name))
		}
		return uuid.Nil, false, nil
	}

	if id, found, err := lookup(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up client %q: %w", name, err)
	} else if found {
		return id, nil
	}

	id := uuid.New()
	tag, err := q.Exec(ctx,
		`INSERT INTO clients (id, source_id, external_id, name) VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING`,
		id, sourceID, externalID, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create client %q: %w", name, err)
	}
	if tag.RowsAffected() == 1 {
		return id, nil
	}

	id, found, err := lookup()
	if err != nil || !found {
		return uuid.Nil, fmt.Errorf("client %q vanished after conflicting insert: %w", name, err)
	}
	return id, nil
}

// resolveCatalogItem finds or creates a catalog item by external id or name.
// A matched item picks up the latest observed unit cost.
func (r *Repository) resolveCatalogItem(ctx context.Context, q querier, sourceID uuid.UUID, externalID, name, description string, unitCost decimal.Decimal) (uuid.UUID, error) {
	lookup := func() (uuid.UUID, bool, error) {
		if externalID != "" {
			id, found, err := scanID(q.QueryRow(ctx,
				`SELECT id FROM catalog_items WHERE source_id = $1 AND external_id = $2`,
				sourceID, externalID))
			if err != nil || found {
				return id, found, err
			}
		}
		return scanID(q.QueryRow(ctx,
			`SELECT id FROM catalog_items
			 WHERE source_id = $1 AND lower(name) = lower($2)
			 ORDER BY created_at DESC LIMIT 1`,
			sourceID, name))
	}

	id, found, err := lookup()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up catalog item %q: %w", name, err)
	}
	if found {
		if unitCost.IsPositive() {
			if _, err := q.Exec(ctx,
				`UPDATE catalog_items SET unit_cost = $2, updated_at = now() WHERE id = $1`,
				id, unitCost); err != nil {
				return uuid.Nil, fmt.Errorf("failed to refresh catalog item %q: %w", name, err)
			}
		}
		return id, nil
	}

	id = uuid.New()
	tag, err := q.Exec(ctx,
		`INSERT INTO catalog_items (id, source_id, external_id, name, description, unit_cost)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING`,
		id, sourceID, externalID, name, description, unitCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create catalog item %q: %w", name, err)
	}
	if tag.RowsAffected() == 1 {
		return id, nil
	}

	id, found, err = lookup()
	if err != nil || !found {
		return uuid.Nil, fmt.Errorf("catalog item %q vanished after conflicting insert: %w", name, err)
	}
	return id, nil
}

// GetClient fetches one client by id, returning ErrNotFound when absent.
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*ledger.Client, error) {
	var c ledger.Client
	err := r.db.QueryRow(ctx,
		`SELECT id, source_id, external_id, name, created_at FROM clients WHERE id = $1`,
		id).Scan(&c.ID, &c.SourceID, &c.ExternalID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client %s: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) clientExists(ctx context.Context, q querier, id uuid.UUID) error {
	_, found, err := scanID(q.QueryRow(ctx, `SELECT id FROM clients WHERE id = $1`, id))
	if err != nil {
		return fmt.Errorf("failed to verify client %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return nil
}

// childIdentity resolves a client-scoped child row (location, contact,
// contract). The parent client must already exist; it is never auto-created.
func (r *Repository) childIdentity(ctx context.Context, q querier, table string, sourceID, clientID uuid.UUID, externalID, name string) (uuid.UUID, error) {
	if err := r.clientExists(ctx, q, clientID); err != nil {
		return uuid.Nil, err
	}

	lookup := func() (uuid.UUID, bool, error) {
		if externalID != "" {
			id, found, err := scanID(q.QueryRow(ctx,
				fmt.Sprintf(`SELECT id FROM %s WHERE source_id = $1 AND external_id = $2`, table),
				sourceID, externalID))
			if err != nil || found {
				return id, found, err
			}
		}
		if name != "" {
			return scanID(q.QueryRow(ctx,
				fmt.Sprintf(`SELECT id FROM %s
				 WHERE client_id = $1 AND lower(name) = lower($2)
				 ORDER BY created_at DESC LIMIT 1`, table),
				clientID, name))
		}
		return uuid.Nil, false, nil
	}

	if id, found, err := lookup(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up %s %q: %w", table, name, err)
	} else if found {
		return id, nil
	}

	id := uuid.New()
	tag, err := q.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, source_id, client_id, external_id, name)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`, table),
		id, sourceID, clientID, externalID, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create %s %q: %w", table, name, err)
	}
	if tag.RowsAffected() == 1 {
		return id, nil
	}

	id, found, err := lookup()
	if err != nil || !found {
		return uuid.Nil, fmt.Errorf("%s %q vanished after conflicting insert: %w", table, name, err)
	}
	return id, nil
}

// LinkLocation attaches a location to an existing client, reusing a prior
// identity when one matches. The resolved id is written back to loc.
func (r *Repository) LinkLocation(ctx context.Context, sourceName string, loc *ledger.Location) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}
		loc.SourceID = sourceID
		loc.ID, err = r.childIdentity(ctx, tx, "locations", sourceID, loc.ClientID, loc.ExternalID, loc.Name)
		return err
	})
}

// LinkContract attaches a contract to an existing client.
func (r *Repository) LinkContract(ctx context.Context, sourceName string, c *ledger.Contract) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}
		c.SourceID = sourceID
		c.ID, err = r.childIdentity(ctx, tx, "contracts", sourceID, c.ClientID, c.ExternalID, c.Name)
		return err
	})
}

// LinkContact attaches a contact to an existing client. A matched contact
// picks up the latest non-empty email.
func (r *Repository) LinkContact(ctx context.Context, sourceName string, c *ledger.Contact) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}
		c.SourceID = sourceID
		c.ID, err = r.childIdentity(ctx, tx, "contacts", sourceID, c.ClientID, c.ExternalID, c.Name)
		if err != nil {
			return err
		}
		if c.Email == "" {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE contacts SET email = $2 WHERE id = $1`, c.ID, c.Email)
		if err != nil {
			return fmt.Errorf("failed to update contact email: %w", err)
		}
		return nil
	})
}

// sourceTypeFileImport is the source type recorded for file-driven imports.
const sourceTypeFileImport = "file_import"
