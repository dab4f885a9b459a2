// Package models defines the data structures for the Roomy matching engine.
package models

import (
	"strings"
	"time"
)

// AccommodationStatus tells whether a student is still looking for a place.
type AccommodationStatus string

const (
	AccommodationNeedDorm AccommodationStatus = "need_dorm"
	AccommodationHaveDorm AccommodationStatus = "have_dorm"
)

// Dealbreaker tags a habit the student refuses to live with.
type Dealbreaker string

const (
	DealbreakerSmoking  Dealbreaker = "smoking"
	DealbreakerDrinking Dealbreaker = "drinking"
)

// Student represents a student profile with its housing and personality attributes.
type Student struct {
	ID                  string              `json:"id" db:"id"`
	UserID              string              `json:"user_id" db:"user_id"`
	FullName            string              `json:"full_name" db:"full_name"`
	Email               string              `json:"email,omitempty" db:"email"`
	Gender              string              `json:"gender" db:"gender"`
	Age                 *int                `json:"age,omitempty" db:"age"`
	Budget              float64             `json:"budget" db:"budget"`
	University          string              `json:"university" db:"university"`
	PreferredUniversity string              `json:"preferred_university,omitempty" db:"preferred_university"`
	Major               string              `json:"major,omitempty" db:"major"`
	YearOfStudy         *int                `json:"year_of_study,omitempty" db:"year_of_study"`
	FavoriteAreas       []string            `json:"favorite_areas" db:"favorite_areas"`
	PreferredRoomTypes  []string            `json:"preferred_room_types" db:"preferred_room_types"`
	PreferredAmenities  []string            `json:"preferred_amenities" db:"preferred_amenities"`
	AccommodationStatus AccommodationStatus `json:"accommodation_status" db:"accommodation_status"`

	CurrentDormID             string `json:"current_dorm_id,omitempty" db:"current_dorm_id"`
	CurrentRoomID             string `json:"current_room_id,omitempty" db:"current_room_id"`
	RoomConfirmed             bool   `json:"room_confirmed" db:"room_confirmed"`
	NeedsRoommateCurrentPlace bool   `json:"needs_roommate_current_place" db:"needs_roommate_current_place"`
	NeedsRoommateNewDorm      bool   `json:"needs_roommate_new_dorm" db:"needs_roommate_new_dorm"`
	NeedsDorm                 bool   `json:"needs_dorm" db:"needs_dorm"`

	Dealbreakers []string `json:"dealbreakers" db:"dealbreakers"`

	// Lifestyle proxies on a 1-5 scale.
	CleanlinessLevel *int `json:"cleanliness_level,omitempty" db:"cleanliness_level"`
	HabitNoise       *int `json:"habit_noise,omitempty" db:"habit_noise"`
	HabitSocial      *int `json:"habit_social,omitempty" db:"habit_social"`

	Personality              Personality `json:"personality"`
	PersonalityTestCompleted bool        `json:"personality_test_completed" db:"personality_test_completed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Personality holds the categorical answers of the personality survey.
type Personality struct {
	SleepSchedule    string `json:"personality_sleep_schedule,omitempty" db:"personality_sleep_schedule"`
	Cleanliness      string `json:"personality_cleanliness,omitempty" db:"personality_cleanliness"`
	NoiseTolerance   string `json:"personality_noise_tolerance,omitempty" db:"personality_noise_tolerance"`
	SocialStyle      string `json:"personality_social_style,omitempty" db:"personality_social_style"`
	Smoking          string `json:"personality_smoking,omitempty" db:"personality_smoking"`
	Drinking         string `json:"personality_drinking,omitempty" db:"personality_drinking"`
	CookingFrequency string `json:"personality_cooking_frequency,omitempty" db:"personality_cooking_frequency"`
	StudyTime        string `json:"personality_study_time,omitempty" db:"personality_study_time"`
	SleepSensitivity string `json:"personality_sleep_sensitivity,omitempty" db:"personality_sleep_sensitivity"`
	Guests           string `json:"personality_guests,omitempty" db:"personality_guests"`
	Pets             string `json:"personality_pets,omitempty" db:"personality_pets"`
}

// HasDealbreaker reports whether the student listed the given dealbreaker.
func (s *Student) HasDealbreaker(d Dealbreaker) bool {
	for _, v := range s.Dealbreakers {
		if strings.EqualFold(strings.TrimSpace(v), string(d)) {
			return true
		}
	}
	return false
}

// TargetUniversity returns the university used for location scoring.
func (s *Student) TargetUniversity() string {
	if s.PreferredUniversity != "" {
		return s.PreferredUniversity
	}
	return s.University
}

// NeedsRoommate reports whether the student wants someone to live with.
func (s *Student) NeedsRoommate() bool {
	return s.NeedsRoommateNewDorm || s.NeedsRoommateCurrentPlace
}

// SeekingRoommateForCurrentPlace reports whether the student has a confirmed
// room and wants someone to join it.
func (s *Student) SeekingRoommateForCurrentPlace() bool {
	return s.AccommodationStatus == AccommodationHaveDorm &&
		s.NeedsRoommateCurrentPlace &&
		s.RoomConfirmed &&
		s.CurrentRoomID != ""
}

// SeekingRoommate reports whether the student can be offered as a roommate candidate.
func (s *Student) SeekingRoommate() bool {
	return s.NeedsRoommateCurrentPlace || s.NeedsRoommateNewDorm
}

// RoommateView is the subset of a student exposed to other students.
type RoommateView struct {
	ID                  string              `json:"id"`
	UserID              string              `json:"user_id"`
	FullName            string              `json:"full_name"`
	Gender              string              `json:"gender"`
	Age                 *int                `json:"age,omitempty"`
	University          string              `json:"university"`
	Major               string              `json:"major,omitempty"`
	YearOfStudy         *int                `json:"year_of_study,omitempty"`
	Budget              float64             `json:"budget"`
	FavoriteAreas       []string            `json:"favorite_areas"`
	AccommodationStatus AccommodationStatus `json:"accommodation_status"`
	CurrentDormID       string              `json:"current_dorm_id,omitempty"`
}

// ToRoommateView converts a Student to its public RoommateView.
func (s *Student) ToRoommateView() RoommateView {
	return RoommateView{
		ID:                  s.ID,
		UserID:              s.UserID,
		FullName:            s.FullName,
		Gender:              s.Gender,
		Age:                 s.Age,
		University:          s.University,
		Major:               s.Major,
		YearOfStudy:         s.YearOfStudy,
		Budget:              s.Budget,
		FavoriteAreas:       s.FavoriteAreas,
		AccommodationStatus: s.AccommodationStatus,
		CurrentDormID:       s.CurrentDormID,
	}
}
