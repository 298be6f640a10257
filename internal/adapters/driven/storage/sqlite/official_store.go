package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== Official Store ====================

// officialStore implements driven.OfficialStore.
type officialStore struct {
	store *Store
}

var _ driven.OfficialStore = (*officialStore)(nil)

const officialColumns = `id, bioguide_id, lis_member_id, name, family_name, office, party,
	chamber, state, district_label, photo_url, updated_at`

// Get retrieves an official by ID.
func (s *officialStore) Get(ctx context.Context, id string) (*domain.Official, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+officialColumns+` FROM officials WHERE id = ?`, id)
	return scanOfficial(row)
}

// Save stores or updates an official by ID.
func (s *officialStore) Save(ctx context.Context, o *domain.Official) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.UpdatedAt = s.store.now()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO officials (`+officialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bioguide_id = excluded.bioguide_id,
			lis_member_id = excluded.lis_member_id,
			name = excluded.name,
			family_name = excluded.family_name,
			office = excluded.office,
			party = excluded.party,
			chamber = excluded.chamber,
			state = excluded.state,
			district_label = excluded.district_label,
			photo_url = excluded.photo_url,
			updated_at = excluded.updated_at
	`, officialArgs(o)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("official bioguide %s: %w", o.BioguideID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("saving official: %w", err)
	}
	return nil
}

// FindByBioguideID retrieves an official by bioguide ID.
func (s *officialStore) FindByBioguideID(ctx context.Context, bioguideID string) (*domain.Official, error) {
	if bioguideID == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+officialColumns+` FROM officials WHERE bioguide_id = ?`, bioguideID)
	return scanOfficial(row)
}

// ListByChamber returns all officials in a chamber ordered by name.
func (s *officialStore) ListByChamber(ctx context.Context, chamber domain.Chamber) ([]domain.Official, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+officialColumns+` FROM officials WHERE chamber = ? ORDER BY name, id`, string(chamber))
	if err != nil {
		return nil, fmt.Errorf("querying officials: %w", err)
	}
	defer rows.Close()
	return scanOfficials(rows)
}

// UpsertByBioguideID refreshes an official in place keyed by bioguide ID.
func (s *officialStore) UpsertByBioguideID(ctx context.Context, o *domain.Official) (bool, error) {
	if o.BioguideID == "" {
		return false, fmt.Errorf("official %q without bioguide id: %w", o.Name, domain.ErrInvalidInput)
	}
	newID := uuid.New().String()
	o.ID = newID
	o.UpdatedAt = s.store.now()

	var id string
	var lis sql.NullString
	err := s.store.db.QueryRowContext(ctx, `
		INSERT INTO officials (`+officialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bioguide_id) DO UPDATE SET
			lis_member_id = COALESCE(excluded.lis_member_id, officials.lis_member_id),
			name = excluded.name,
			family_name = excluded.family_name,
			office = excluded.office,
			party = excluded.party,
			chamber = excluded.chamber,
			state = excluded.state,
			district_label = excluded.district_label,
			photo_url = excluded.photo_url,
			updated_at = excluded.updated_at
		RETURNING id, lis_member_id
	`, officialArgs(o)...).Scan(&id, &lis)
	if err != nil {
		return false, fmt.Errorf("upserting official: %w", err)
	}
	o.ID = id
	o.LISMemberID = lis.String
	return id == newID, nil
}

// SetLISMemberID records an official's Senate LIS identifier.
func (s *officialStore) SetLISMemberID(ctx context.Context, officialID, lisMemberID string) error {
	res, err := s.store.db.ExecContext(ctx,
		`UPDATE officials SET lis_member_id = ?, updated_at = ? WHERE id = ?`,
		nullString(lisMemberID), formatTime(s.store.now()), officialID)
	if err != nil {
		return fmt.Errorf("setting lis member id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func officialArgs(o *domain.Official) []any {
	return []any{
		o.ID, nullString(o.BioguideID), nullString(o.LISMemberID), o.Name, o.FamilyName, o.Office,
		o.Party, string(o.Chamber), o.State, o.DistrictLabel, o.PhotoURL, formatTime(o.UpdatedAt),
	}
}

func scanOfficial(row scanner) (*domain.Official, error) {
	var o domain.Official
	var bioguide, lis sql.NullString
	var chamber, updatedAt string
	if err := row.Scan(&o.ID, &bioguide, &lis, &o.Name, &o.FamilyName, &o.Office, &o.Party, &chamber,
		&o.State, &o.DistrictLabel, &o.PhotoURL, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning official: %w", err)
	}
	o.BioguideID = bioguide.String
	o.LISMemberID = lis.String
	o.Chamber = domain.Chamber(chamber)

	var err error
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOfficials(rows *sql.Rows) ([]domain.Official, error) {
	var officials []domain.Official
	for rows.Next() {
		o, err := scanOfficial(rows)
		if err != nil {
			return nil, err
		}
		officials = append(officials, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating officials: %w", err)
	}
	return officials, nil
}
