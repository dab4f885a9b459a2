package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"roomy-ai-core/internal/models"
)

const dormColumns = `
	d.id::text, COALESCE(d.dorm_name, ''), COALESCE(d.owner_id::text, ''), COALESCE(d.area, ''),
	COALESCE(d.address, ''), COALESCE(d.university, ''), COALESCE(d.monthly_price, 0),
	d.gender_preference, COALESCE(d.amenities, '{}'), COALESCE(d.room_types, '{}'),
	COALESCE(d.verification_status, ''), d.available, COALESCE(d.image_url, ''), d.created_at`

const roomColumns = `
	r.id::text, r.dorm_id::text, COALESCE(r.name, ''), COALESCE(r.type, ''), COALESCE(r.price, 0),
	r.capacity, r.capacity_occupied, r.available`

// listingFilter is the pushdown prefilter shared by dorm and room listings.
// priceExpr is the SQL expression of the listing price.
func listingFilter(priceExpr string) string {
	return `
		d.verification_status = 'Verified' AND d.available
		AND NOT (d.id::text = ANY($1::text[]))
		AND ($2::float8 = 0 OR ` + priceExpr + ` = 0 OR ` + priceExpr + ` <= $2::float8)
		AND (d.gender_preference IS NULL
		     OR lower(d.gender_preference) IN ('', 'mixed', 'any')
		     OR lower(d.gender_preference) = lower($3::text))
		AND (cardinality($4::text[]) = 0 OR EXISTS (
		     SELECT 1 FROM unnest($4::text[]) AS a(area)
		     WHERE d.area ILIKE '%' || a.area || '%' OR a.area ILIKE '%' || d.area || '%'))
		AND ($5::text = '' OR d.university ILIKE '%' || $5::text || '%')`
}

func listingArgs(q models.DormQuery) []interface{} {
	return []interface{}{nonNilStrings(q.ExcludeIDs), q.MaxPrice, q.Gender, nonNilStrings(q.Areas), q.University}
}

// DormRepository reads dorm and room listings.
type DormRepository struct {
	db *DB
}

// NewDormRepository creates a new dorm repository.
func NewDormRepository(db *DB) *DormRepository {
	return &DormRepository{db: db}
}

// ListDorms returns listed dorms passing the query prefilter.
func (r *DormRepository) ListDorms(ctx context.Context, q models.DormQuery) ([]*models.Dorm, error) {
	query := `SELECT ` + dormColumns + `
		FROM dorms d
		WHERE ` + listingFilter("COALESCE(d.monthly_price, 0)") + `
		ORDER BY d.id`

	rows, err := r.db.QueryContext(ctx, query, listingArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dorms: %w", err)
	}
	defer rows.Close()

	var dorms []*models.Dorm
	for rows.Next() {
		dorm, err := scanDorm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dorm: %w", err)
		}
		dorms = append(dorms, dorm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dorms: %w", err)
	}
	return dorms, nil
}

// GetDorm retrieves a dorm by ID. It returns nil when the dorm does not exist.
func (r *DormRepository) GetDorm(ctx context.Context, id string) (*models.Dorm, error) {
	query := `SELECT ` + dormColumns + ` FROM dorms d WHERE d.id::text = $1`

	dorm, err := scanDorm(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dorm: %w", err)
	}
	return dorm, nil
}

// ListRooms returns every room of a dorm.
func (r *DormRepository) ListRooms(ctx context.Context, dormID string) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		WHERE r.dorm_id::text = $1
		ORDER BY r.id`

	rows, err := r.db.QueryContext(ctx, query, dormID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom retrieves a room by ID. It returns nil when the room does not exist.
func (r *DormRepository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.id::text = $1`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// ListRoomsWithDorm returns rooms joined with their dorm, prefiltered on the
// dorm listing and the room price.
func (r *DormRepository) ListRoomsWithDorm(ctx context.Context, q models.DormQuery) ([]*models.RoomWithDorm, error) {
	query := `SELECT ` + roomColumns + `, ` + dormColumns + `
		FROM rooms r
		JOIN dorms d ON d.id = r.dorm_id
		WHERE ` + listingFilter("COALESCE(NULLIF(r.price, 0), d.monthly_price, 0)") + `
		  AND r.capacity_occupied < r.capacity
		ORDER BY d.id, r.id`

	rows, err := r.db.QueryContext(ctx, query, listingArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var result []*models.RoomWithDorm
	for rows.Next() {
		var rw models.RoomWithDorm
		var d models.Dorm
		room := &rw.Room
		err := rows.Scan(
			&room.ID, &room.DormID, &room.Name, &room.Type, &room.Price,
			&room.Capacity, &room.CapacityOccupied, &room.Available,
			&d.ID, &d.Name, &d.OwnerID, &d.Area,
			&d.Address, &d.University, &d.MonthlyPrice,
			&d.GenderPreference, &d.Amenities, &d.RoomTypes,
			&d.VerificationStatus, &d.Available, &d.ImageURL, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rw.Dorm = &d
		result = append(result, &rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return result, nil
}

func scanDorm(row pgx.Row) (*models.Dorm, error) {
	var d models.Dorm
	err := row.Scan(
		&d.ID, &d.Name, &d.OwnerID, &d.Area,
		&d.Address, &d.University, &d.MonthlyPrice,
		&d.GenderPreference, &d.Amenities, &d.RoomTypes,
		&d.VerificationStatus, &d.Available, &d.ImageURL, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID, &room.DormID, &room.Name, &room.Type, &room.Price,
		&room.Capacity, &room.CapacityOccupied, &room.Available,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
