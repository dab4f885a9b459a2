package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"roomy-ai-core/internal/models"
)

const studentColumns = `
	s.id::text, s.user_id::text, COALESCE(s.full_name, ''), COALESCE(s.email, ''), COALESCE(s.gender, ''), s.age,
	COALESCE(s.budget, 0), COALESCE(s.university, ''), COALESCE(s.preferred_university, ''),
	COALESCE(s.major, ''), s.year_of_study,
	COALESCE(s.favorite_areas, '{}'), COALESCE(s.preferred_room_types, '{}'), COALESCE(s.preferred_amenities, '{}'),
	COALESCE(s.accommodation_status, 'need_dorm'),
	COALESCE(s.current_dorm_id::text, ''), COALESCE(s.current_room_id::text, ''), s.room_confirmed,
	s.needs_roommate_current_place, s.needs_roommate_new_dorm, s.needs_dorm,
	COALESCE(s.dealbreakers, '{}'),
	s.cleanliness_level, s.habit_noise, s.habit_social,
	COALESCE(s.personality_sleep_schedule, ''), COALESCE(s.personality_cleanliness, ''),
	COALESCE(s.personality_noise_tolerance, ''), COALESCE(s.personality_social_style, ''),
	COALESCE(s.personality_smoking, ''), COALESCE(s.personality_drinking, ''),
	COALESCE(s.personality_cooking_frequency, ''), COALESCE(s.personality_study_time, ''),
	COALESCE(s.personality_sleep_sensitivity, ''), COALESCE(s.personality_guests, ''),
	COALESCE(s.personality_pets, ''),
	s.personality_test_completed, s.created_at, s.updated_at`

// StudentRepository reads student profiles.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByUserID retrieves the profile of an auth user.
func (r *StudentRepository) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students s
		WHERE s.user_id::text = $1`

	student, err := scanStudent(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// ListRoommateCandidates returns students of the same gender who are looking
// for a roommate, or who need a dorm when q.NeedsDorm is set.
func (r *StudentRepository) ListRoommateCandidates(ctx context.Context, q models.RoommateQuery) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students s
		WHERE s.id::text <> $1
		  AND lower(s.gender) = lower($2)
		  AND NOT (s.id::text = ANY($3::text[]))
		  AND CASE WHEN $4
		      THEN (s.needs_dorm OR s.accommodation_status = 'need_dorm')
		      ELSE (s.needs_roommate_current_place OR s.needs_roommate_new_dorm)
		      END
		ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, query, q.ExcludeStudentID, q.Gender, nonNilStrings(q.ExcludeIDs), q.NeedsDorm)
	if err != nil {
		return nil, fmt.Errorf("failed to query roommate candidates: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	var status string
	p := &s.Personality

	err := row.Scan(
		&s.ID, &s.UserID, &s.FullName, &s.Email, &s.Gender, &s.Age,
		&s.Budget, &s.University, &s.PreferredUniversity,
		&s.Major, &s.YearOfStudy,
		&s.FavoriteAreas, &s.PreferredRoomTypes, &s.PreferredAmenities,
		&status,
		&s.CurrentDormID, &s.CurrentRoomID, &s.RoomConfirmed,
		&s.NeedsRoommateCurrentPlace, &s.NeedsRoommateNewDorm, &s.NeedsDorm,
		&s.Dealbreakers,
		&s.CleanlinessLevel, &s.HabitNoise, &s.HabitSocial,
		&p.SleepSchedule, &p.Cleanliness,
		&p.NoiseTolerance, &p.SocialStyle,
		&p.Smoking, &p.Drinking,
		&p.CookingFrequency, &p.StudyTime,
		&p.SleepSensitivity, &p.Guests,
		&p.Pets,
		&s.PersonalityTestCompleted, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.AccommodationStatus = models.AccommodationStatus(status)
	return &s, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
