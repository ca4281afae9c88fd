// Package seed fills a running grade book with generated students through
// its HTTP API and checks the stored results against local computation.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Students      int           // Number of students to generate and save
	WeightedRatio float64       // Share of students given explicit weights, in [0, 1]
	Seed          uint64        // Random seed; equal seeds generate equal students
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Optional JSON file receiving the generated students
}

// Student is one generated form submission and the averages expected for it.
type Student struct {
	Name             string  `json:"name"`
	Grades           string  `json:"grades"`
	Weights          string  `json:"weights"`
	ExpectedMean     float64 `json:"expected_mean"`
	ExpectedWeighted float64 `json:"expected_weighted"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Computed   int
	Saved      int
	Failed     int
	Mismatched int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
