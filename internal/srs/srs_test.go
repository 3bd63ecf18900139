package srs

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestUpdateNewCard(t *testing.T) {
	testCases := []struct {
		name             string
		rating           domain.Rating
		expectedInterval float64
		expectedEase     float64
		expectedStatus   domain.Status
	}{
		{"Again", domain.Again, 0, 2.3, domain.StatusLearning},
		{"Hard", domain.Hard, 1, 2.35, domain.StatusReview},
		{"Good", domain.Good, 1, 2.5, domain.StatusReview},
		{"Easy", domain.Easy, 4, 2.65, domain.StatusReview},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := Update(nil, tc.rating, now)
			if st.Interval != tc.expectedInterval {
				t.Errorf("Expected interval %.1f, but got %.1f", tc.expectedInterval, st.Interval)
			}
			if !approx(st.Ease, tc.expectedEase) {
				t.Errorf("Expected ease %.2f, but got %.2f", tc.expectedEase, st.Ease)
			}
			if st.Status != tc.expectedStatus {
				t.Errorf("Expected status %s, but got %s", tc.expectedStatus, st.Status)
			}
			if st.Reviews != 1 {
				t.Errorf("Expected 1 review, but got %d", st.Reviews)
			}
			if st.LastRating != tc.rating {
				t.Errorf("Expected last rating %v, but got %v", tc.rating, st.LastRating)
			}
			if !st.LastReviewed.Equal(now) {
				t.Errorf("Expected last reviewed %v, but got %v", now, st.LastReviewed)
			}
		})
	}
}

func TestUpdateGoodDueDate(t *testing.T) {
	st := Update(nil, domain.Good, now)
	expected := now.Add(24 * time.Hour)
	if !st.DueDate.Equal(expected) {
		t.Errorf("Expected due date %v, but got %v", expected, st.DueDate)
	}
}

func TestUpdateAgainFromReview(t *testing.T) {
	prior := &domain.CardStatistics{Interval: 10, Ease: 2.0, Status: domain.StatusReview, Reviews: 3}
	st := Update(prior, domain.Again, now)

	if st.Interval != 0 {
		t.Errorf("Expected interval 0, but got %.1f", st.Interval)
	}
	if !approx(st.Ease, 1.8) {
		t.Errorf("Expected ease 1.8, but got %.2f", st.Ease)
	}
	if st.Status != domain.StatusLearning {
		t.Errorf("Expected status learning, but got %s", st.Status)
	}
	if st.Reviews != 4 {
		t.Errorf("Expected 4 reviews, but got %d", st.Reviews)
	}
	if !st.DueDate.Equal(now) {
		t.Errorf("Expected a card rated again to be due immediately, but got %v", st.DueDate)
	}
}

func TestUpdateGrowth(t *testing.T) {
	prior := &domain.CardStatistics{Interval: 10, Ease: 2.0, Reviews: 3}

	testCases := []struct {
		rating   domain.Rating
		interval float64
		ease     float64
	}{
		{domain.Hard, 12, 1.85},
		{domain.Good, 20, 2.0},
		{domain.Easy, 26, 2.15},
	}
	for _, tc := range testCases {
		t.Run(tc.rating.String(), func(t *testing.T) {
			st := Update(prior, tc.rating, now)
			if st.Interval != tc.interval {
				t.Errorf("Expected interval %.1f, but got %.1f", tc.interval, st.Interval)
			}
			if !approx(st.Ease, tc.ease) {
				t.Errorf("Expected ease %.2f, but got %.2f", tc.ease, st.Ease)
			}
		})
	}
}

func TestUpdateRoundsInterval(t *testing.T) {
	prior := &domain.CardStatistics{Interval: 1.3, Ease: 2.37, Reviews: 2}
	st := Update(prior, domain.Good, now)
	// 1.3 * 2.37 = 3.081
	if st.Interval != 3.1 {
		t.Errorf("Expected interval 3.1, but got %v", st.Interval)
	}
	expected := now.Add(time.Duration(3.1 * float64(24*time.Hour)))
	if !st.DueDate.Equal(expected) {
		t.Errorf("Expected due date %v, but got %v", expected, st.DueDate)
	}
}

func TestEaseFloorAndMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for run := 0; run < 200; run++ {
		var st *domain.CardStatistics
		for i := 0; i < 40; i++ {
			r := domain.Ratings[rng.IntN(len(domain.Ratings))]
			before := 0.0
			if st != nil {
				before = st.Interval
			}
			next := Update(st, r, now)
			if next.Ease < domain.MinEase {
				t.Fatalf("Ease dropped below floor: %v", next.Ease)
			}
			if r == domain.Again && next.Interval != 0 {
				t.Fatalf("Expected again to reset the interval, but got %v", next.Interval)
			}
			if r != domain.Again && next.Interval < before {
				t.Fatalf("Interval decreased from %v to %v on %v", before, next.Interval, r)
			}
			st = &next
		}
	}
}

func TestUpdateLongIntervalDueDate(t *testing.T) {
	prior := &domain.CardStatistics{Interval: 100000, Ease: 3.7, Status: domain.StatusReview, Reviews: 9}
	st := Update(prior, domain.Easy, now)
	if !st.DueDate.After(now) {
		t.Fatalf("Expected due date after %v, but got %v", now, st.DueDate)
	}
	days := float64(st.DueDate.UnixMilli()-now.UnixMilli()) / msPerDay
	if math.Abs(days-st.Interval) > 1 {
		t.Errorf("Expected due date %v days out, but got %v", st.Interval, days)
	}
}

func TestDueDateSaturates(t *testing.T) {
	due := DueDate(now, 1e12)
	if !due.Equal(maxDue) {
		t.Errorf("Expected due date %v, but got %v", maxDue, due)
	}
}

func TestDueDateMatchesInterval(t *testing.T) {
	sequences := map[string]func(i int) domain.Rating{
		"all easy": func(int) domain.Rating { return domain.Easy },
		"all good": func(int) domain.Rating { return domain.Good },
		"mixed":    func(i int) domain.Rating { return domain.Ratings[(i*7+3)%len(domain.Ratings)] },
	}
	for name, rating := range sequences {
		t.Run(name, func(t *testing.T) {
			var st *domain.CardStatistics
			reviewed := now
			for i := 0; i < 30; i++ {
				next := Update(st, rating(i), reviewed)
				if !next.DueDate.Equal(DueDate(next.LastReviewed, next.Interval)) {
					t.Fatalf("Step %d: expected due date %v, but got %v", i, DueDate(next.LastReviewed, next.Interval), next.DueDate)
				}
				if next.DueDate.Before(next.LastReviewed) {
					t.Fatalf("Step %d: due date %v is before last review %v (interval %v)", i, next.DueDate, next.LastReviewed, next.Interval)
				}
				st = &next
				reviewed = reviewed.Add(time.Hour)
			}
		})
	}
}

func TestUpdateInvalidRatingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Update to panic on an invalid rating")
		}
	}()
	Update(nil, domain.Rating(0), now)
}

func TestPreview(t *testing.T) {
	p := Preview(nil, now)
	expected := map[domain.Rating]float64{domain.Again: 0, domain.Hard: 1, domain.Good: 1, domain.Easy: 4}
	for r, interval := range expected {
		if p[r] != interval {
			t.Errorf("Expected %v to preview %.1f, but got %.1f", r, interval, p[r])
		}
	}
}

func TestFormatInterval(t *testing.T) {
	testCases := []struct {
		days     float64
		expected string
	}{
		{0, "<10m"},
		{0.5, "1d"},
		{4, "4d"},
		{29.4, "29d"},
		{45, "2mo"},
		{400, "1y"},
	}
	for _, tc := range testCases {
		if got := FormatInterval(tc.days); got != tc.expected {
			t.Errorf("Expected '%s' for %.1f days, but got '%s'", tc.expected, tc.days, got)
		}
	}
}
