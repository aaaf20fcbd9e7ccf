package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
)

func mcPut() models.Instrument {
	return models.NewInstrument(models.Put, 50, 52, 0.05, 2, 0.3).
		WithProduct(models.ProductStockOption)
}

func TestMonteCarloPricer_MatchesClosedForm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping simulation in short mode")
	}

	const want = 6.7601
	tests := []struct {
		name    string
		workers int
	}{
		{"single stream", 0},
		{"four workers", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pricer, err := NewMonteCarloPricer(300000, tt.workers, WithSeed(20240601))
			if err != nil {
				t.Fatalf("NewMonteCarloPricer() error = %v", err)
			}
			got, err := pricer.Price(mcPut())
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			if math.Abs(got-want) > 0.1 {
				t.Errorf("Price() = %v, want %v ± 0.1", got, want)
			}
		})
	}
}

func TestMonteCarloPricer_Deterministic(t *testing.T) {
	for _, workers := range []int{0, 3} {
		a, err := NewMonteCarloPricer(20000, workers, WithSeed(7))
		if err != nil {
			t.Fatal(err)
		}
		b, err := NewMonteCarloPricer(20000, workers, WithSeed(7))
		if err != nil {
			t.Fatal(err)
		}

		pa, err := a.Price(mcPut())
		if err != nil {
			t.Fatal(err)
		}
		pb, err := b.Price(mcPut())
		if err != nil {
			t.Fatal(err)
		}
		again, err := a.Price(mcPut())
		if err != nil {
			t.Fatal(err)
		}

		if pa != pb || pa != again {
			t.Errorf("workers=%d: same seed gave %v, %v and %v", workers, pa, pb, again)
		}
	}
}

func TestMonteCarloPricer_SetWorkers(t *testing.T) {
	pricer, err := NewMonteCarloPricer(1000, 0, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	if err := pricer.SetWorkers(-1); !errors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("SetWorkers(-1) error = %v, want ErrInvalidParameter", err)
	}
	if pricer.Workers() != 0 {
		t.Errorf("Workers() = %d after rejected update, want 0", pricer.Workers())
	}

	if err := pricer.SetWorkers(8); err != nil {
		t.Fatalf("SetWorkers(8) error = %v", err)
	}
	if pricer.Workers() != 8 {
		t.Errorf("Workers() = %d, want 8", pricer.Workers())
	}
	if pricer.Paths() != 1000 || pricer.Seed() != 1 {
		t.Errorf("Paths() = %d, Seed() = %d", pricer.Paths(), pricer.Seed())
	}
	if _, err := pricer.Price(mcPut()); err != nil {
		t.Errorf("Price() error = %v", err)
	}
}

func TestNewMonteCarloPricer_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		paths   int
		workers int
	}{
		{"zero paths", 0, 1},
		{"negative paths", -10, 1},
		{"negative workers", 100, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMonteCarloPricer(tt.paths, tt.workers)
			if !errors.Is(err, apperrors.ErrInvalidParameter) {
				t.Errorf("error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestMonteCarloPricer_RequiresCarry(t *testing.T) {
	pricer, err := NewMonteCarloPricer(100, 0, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	_, err = pricer.Price(models.NewInstrument(models.Put, 50, 52, 0.05, 2, 0.3))
	if !errors.Is(err, apperrors.ErrMissingCostOfCarry) {
		t.Errorf("error = %v, want ErrMissingCostOfCarry", err)
	}
}

func TestMonteCarloPricer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{0, 4} {
		pricer, err := NewMonteCarloPricer(100000, workers, WithSeed(1))
		if err != nil {
			t.Fatal(err)
		}
		_, err = pricer.PriceContext(ctx, mcPut())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: error = %v, want context.Canceled", workers, err)
		}
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		paths   int
		workers int
		want    []int
	}{
		{10, 3, []int{4, 3, 3}},
		{12, 4, []int{3, 3, 3, 3}},
		{7, 1, []int{7}},
		{2, 5, []int{1, 1}},
		{300001, 4, []int{75001, 75000, 75000, 75000}},
	}

	for _, tt := range tests {
		got := partition(tt.paths, tt.workers)
		if len(got) != len(tt.want) {
			t.Errorf("partition(%d, %d) = %v, want %v", tt.paths, tt.workers, got, tt.want)
			continue
		}
		sum := 0
		for i := range got {
			sum += got[i]
			if got[i] != tt.want[i] {
				t.Errorf("partition(%d, %d) = %v, want %v", tt.paths, tt.workers, got, tt.want)
				break
			}
		}
		if sum != tt.paths {
			t.Errorf("partition(%d, %d) covers %d paths", tt.paths, tt.workers, sum)
		}
	}
}

func BenchmarkMonteCarloPricer_Price(b *testing.B) {
	pricer, err := NewMonteCarloPricer(100000, 4, WithSeed(1))
	if err != nil {
		b.Fatal(err)
	}
	inst := mcPut()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pricer.Price(inst)
	}
}
