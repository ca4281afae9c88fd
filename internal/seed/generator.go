package seed

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/gradebook/internal/domain/grading"
	"github.com/okian/gradebook/internal/domain/numlist"
)

// Ranges for generated data.
const (
	minGrades       = 1
	maxGrades       = 6
	maxGrade        = 100
	halfPointChance = 0.2
	maxWeightUnits  = 10
)

var firstNames = []string{"Ali", "Veli", "Ayse", "Fatma", "Mehmet", "Zeynep", "Can", "Elif", "Emre", "Deniz"}

// Generate creates cfg.Students students. Every student is valid input and
// carries the averages computed locally with calc.
func Generate(cfg *Config, calc *grading.Calculator) ([]Student, error) {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], cfg.Seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	students := make([]Student, cfg.Students)
	for i := range students {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to generate student id: %w", err)
		}
		grades := randomGrades(rng)
		s := Student{
			Name:   firstNames[rng.IntN(len(firstNames))] + "-" + id.String()[:8],
			Grades: formatList(grades),
		}
		if rng.Float64() < cfg.WeightedRatio {
			s.Weights = formatList(randomWeights(rng, len(grades)))
		}

		res, err := expected(calc, s)
		if err != nil {
			return nil, fmt.Errorf("generated student %d is invalid: %w", i, err)
		}
		s.ExpectedMean = res.Mean
		s.ExpectedWeighted = res.Weighted
		students[i] = s
	}
	return students, nil
}

// expected runs the same parse and compute steps the service runs.
func expected(calc *grading.Calculator, s Student) (grading.Result, error) {
	grades, err := numlist.Parse(s.Grades)
	if err != nil {
		return grading.Result{}, err
	}
	var weights []float64
	if s.Weights != "" {
		if weights, err = numlist.Parse(s.Weights); err != nil {
			return grading.Result{}, err
		}
	}
	return calc.Compute(s.Name, grades, weights)
}

func randomGrades(rng *rand.Rand) []float64 {
	n := minGrades + rng.IntN(maxGrades-minGrades+1)
	out := make([]float64, n)
	for i := range out {
		g := float64(rng.IntN(maxGrade + 1))
		if g < maxGrade && rng.Float64() < halfPointChance {
			g += 0.5
		}
		out[i] = g
	}
	return out
}

// randomWeights returns n weights whose sum is 1 up to rounding.
func randomWeights(rng *rand.Rand, n int) []float64 {
	units := make([]int, n)
	total := 0
	for i := range units {
		units[i] = 1 + rng.IntN(maxWeightUnits)
		total += units[i]
	}
	out := make([]float64, n)
	for i, u := range units {
		out[i] = float64(u) / float64(total)
	}
	return out
}

func formatList(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}
