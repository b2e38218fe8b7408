package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/familytree/internal/models"
	"github.com/your-org/familytree/internal/policy"
)

const personColumns = `id, first_name, middle_name, last_name, maiden_name, nicknames, gender,
	date_of_birth, date_of_death, is_deceased, email, phone, address, city, state, country,
	bio, occupation, biological_father_id, biological_mother_id, adoptive_parent_id,
	generation, profile_status, rejection_reason, photo_key, created_by, updated_by,
	created_at, updated_at`

func scanPerson(row pgx.Row, p *models.Person) error {
	return row.Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.MaidenName,
		&p.Nicknames, &p.Gender, &p.DateOfBirth, &p.DateOfDeath, &p.IsDeceased,
		&p.Email, &p.Phone, &p.Address, &p.City, &p.State, &p.Country,
		&p.Bio, &p.Occupation, &p.BiologicalFatherID, &p.BiologicalMotherID, &p.AdoptiveParentID,
		&p.Generation, &p.ProfileStatus, &p.RejectionReason, &p.PhotoKey,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Nicknames == nil {
		p.Nicknames = []string{}
	}
	if p.ProfileStatus == "" {
		p.ProfileStatus = models.ProfileStatusDraft
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO persons (id, first_name, middle_name, last_name, maiden_name, nicknames, gender,
			date_of_birth, date_of_death, is_deceased, email, phone, address, city, state, country,
			bio, occupation, biological_father_id, biological_mother_id, adoptive_parent_id,
			generation, profile_status, rejection_reason, photo_key, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		 RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.MaidenName, p.Nicknames, p.Gender,
		p.DateOfBirth, p.DateOfDeath, p.IsDeceased, p.Email, p.Phone, p.Address, p.City, p.State, p.Country,
		p.Bio, p.Occupation, p.BiologicalFatherID, p.BiologicalMotherID, p.AdoptiveParentID,
		p.Generation, p.ProfileStatus, p.RejectionReason, p.PhotoKey, p.CreatedBy, p.UpdatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := scanPerson(s.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, id), p)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, p *models.Person) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE persons SET first_name = $2, middle_name = $3, last_name = $4, maiden_name = $5,
			nicknames = $6, gender = $7, date_of_birth = $8, date_of_death = $9, is_deceased = $10,
			email = $11, phone = $12, address = $13, city = $14, state = $15, country = $16,
			bio = $17, occupation = $18, biological_father_id = $19, biological_mother_id = $20,
			photo_key = $21, updated_by = $22, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.MaidenName, p.Nicknames, p.Gender,
		p.DateOfBirth, p.DateOfDeath, p.IsDeceased, p.Email, p.Phone, p.Address, p.City, p.State, p.Country,
		p.Bio, p.Occupation, p.BiologicalFatherID, p.BiologicalMotherID,
		p.PhotoKey, p.UpdatedBy,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("person not found")
		}
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeletePerson(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person not found")
	}
	return nil
}

// ListPersons returns a page of persons ordered by name, optionally
// filtered by a case-insensitive name/email search.
func (s *PostgresStore) ListPersons(ctx context.Context, search string, limit, offset int) ([]models.Person, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	baseWhere := ""
	args := []interface{}{}
	argIdx := 1

	if search != "" {
		baseWhere = fmt.Sprintf(
			"WHERE first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d",
			argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM persons " + baseWhere
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count persons: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM persons %s ORDER BY last_name ASC, first_name ASC LIMIT $%d OFFSET $%d`,
		personColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, total, nil
}

// SearchPersons backs the relationship autocomplete. Matches first name,
// last name, or an exact nickname.
func (s *PostgresStore) SearchPersons(ctx context.Context, q string, limit int) ([]models.Person, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+personColumns+` FROM persons
		 WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR $2 = ANY(nicknames)
		 ORDER BY last_name ASC, first_name ASC LIMIT $3`,
		"%"+q+"%", q, limit)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, nil
}

func (s *PostgresStore) UpdateProfileStatus(ctx context.Context, id uuid.UUID, status models.ProfileStatus, reason *string, updatedBy uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE persons SET profile_status = $2, rejection_reason = $3, updated_by = $4, updated_at = now()
		 WHERE id = $1`,
		id, status, reason, updatedBy)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person not found")
	}
	return nil
}

func (s *PostgresStore) SetPhotoKey(ctx context.Context, id uuid.UUID, key string, updatedBy uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE persons SET photo_key = $2, updated_by = $3, updated_at = now() WHERE id = $1`,
		id, key, updatedBy)
	if err != nil {
		return fmt.Errorf("set photo key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person not found")
	}
	return nil
}

func (s *PostgresStore) ListPendingProfiles(ctx context.Context) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personColumns+` FROM persons WHERE profile_status = $1 ORDER BY created_at DESC`,
		models.ProfileStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending profiles: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// GetPersonRefs resolves short-form references for a set of person ids.
func (s *PostgresStore) GetPersonRefs(ctx context.Context, ids []uuid.UUID) ([]models.PersonRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, first_name, last_name, date_of_birth, photo_key FROM persons WHERE id = ANY($1)`,
		ids)
	if err != nil {
		return nil, fmt.Errorf("get person refs: %w", err)
	}
	defer rows.Close()

	var refs []models.PersonRef
	for rows.Next() {
		var ref models.PersonRef
		if err := rows.Scan(&ref.ID, &ref.FirstName, &ref.LastName, &ref.DateOfBirth, &ref.PhotoKey); err != nil {
			return nil, fmt.Errorf("scan person ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// --- Policy graph reads ---

// RelationSummary collects the one-hop relationship set of a person:
// parent links from the record, children via the paternal and maternal
// inverse relations, and spouses from both marriage orderings. Returns
// (nil, nil) when the person does not exist.
func (s *PostgresStore) RelationSummary(ctx context.Context, personID uuid.UUID) (*policy.RelationSummary, error) {
	summary := &policy.RelationSummary{}
	err := s.pool.QueryRow(ctx,
		`SELECT biological_father_id, biological_mother_id, adoptive_parent_id FROM persons WHERE id = $1`,
		personID,
	).Scan(&summary.FatherID, &summary.MotherID, &summary.AdoptiveParentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get relation summary: %w", err)
	}

	paternal, err := s.childIDs(ctx, "biological_father_id", personID)
	if err != nil {
		return nil, err
	}
	maternal, err := s.childIDs(ctx, "biological_mother_id", personID)
	if err != nil {
		return nil, err
	}
	summary.ChildIDs = append(paternal, maternal...)

	spouses, err := s.spouseIDs(ctx, personID)
	if err != nil {
		return nil, err
	}
	summary.SpouseIDs = spouses

	return summary, nil
}

// ParentLinks returns just the parent foreign keys of a person, or
// (nil, nil) when the person does not exist.
func (s *PostgresStore) ParentLinks(ctx context.Context, personID uuid.UUID) (*policy.ParentLinks, error) {
	links := &policy.ParentLinks{}
	err := s.pool.QueryRow(ctx,
		`SELECT biological_father_id, biological_mother_id, adoptive_parent_id FROM persons WHERE id = $1`,
		personID,
	).Scan(&links.FatherID, &links.MotherID, &links.AdoptiveParentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get parent links: %w", err)
	}
	return links, nil
}

func (s *PostgresStore) childIDs(ctx context.Context, parentColumn string, personID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id FROM persons WHERE %s = $1`, parentColumn), personID)
	if err != nil {
		return nil, fmt.Errorf("list children by %s: %w", parentColumn, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *PostgresStore) spouseIDs(ctx context.Context, personID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT spouse2_id FROM marriages WHERE spouse1_id = $1
		 UNION ALL
		 SELECT spouse1_id FROM marriages WHERE spouse2_id = $1`, personID)
	if err != nil {
		return nil, fmt.Errorf("list spouses: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan spouse id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
