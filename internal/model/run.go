package model

import "time"

// RunRecord is one recorded split run in the history store.
type RunRecord struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Seed         int64     `json:"random_seed"`
	TrainRatio   float64   `json:"train_ratio"`
	ValRatio     float64   `json:"val_ratio"`
	TestRatio    float64   `json:"test_ratio"`
	IndexPath    string    `json:"index_path"`
	Patients     int       `json:"n_patients"`
	Images       int       `json:"n_images"`
	OverallValid bool      `json:"overall_valid"`
	Metadata     string    `json:"metadata,omitempty"`
}

// RunAssignment is one patient's split assignment within a recorded run.
type RunAssignment struct {
	RunID        string       `json:"run_id"`
	PatientID    string       `json:"patient_id"`
	Source       Source       `json:"source"`
	Split        Split        `json:"split"`
	PrimaryLabel DiseaseLabel `json:"primary_label"`
	Images       int          `json:"n_images"`
}
