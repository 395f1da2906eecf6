package reallocation

import (
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/train/traintest"
	"github.com/travigo/trainrac/pkg/upgrade"
)

// atStation starts the journey and advances it to idx
func atStation(t *testing.T, config train.Config, idx int, passengers ...*rail.Passenger) *train.Train {
	t.Helper()

	config.BoardingAutoConfirm = true
	tr, err := traintest.New(config, passengers...)
	require.NoError(t, err)
	require.NoError(t, tr.StartJourney())

	for i := 0; i < idx; i++ {
		_, err := tr.AdvanceToNextStation()
		require.NoError(t, err)
	}
	return tr
}

func pnrs(passengers []rail.Passenger) []string {
	var list []string
	for _, passenger := range passengers {
		list = append(list, passenger.PNR)
	}
	return list
}

func findVacancy(t *testing.T, vacancies []rail.Vacancy, label string) rail.Vacancy {
	t.Helper()

	for _, vacancy := range vacancies {
		if vacancy.Label() == label {
			return vacancy
		}
	}
	require.Failf(t, "vacancy not found", "no vacancy on %s", label)
	return rail.Vacancy{}
}

func hasVacancy(vacancies []rail.Vacancy, label string) bool {
	for _, vacancy := range vacancies {
		if vacancy.Label() == label {
			return true
		}
	}
	return false
}

func TestEligibleRequiresContainment(t *testing.T) {
	tr := atStation(t, train.Config{}, 2,
		traintest.Confirmed("C1", "S1", 1, 0, 2),
		traintest.RAC("R1", 1, "S1", 7, 1, 3),
		traintest.RAC("R2", 2, "S1", 15, 2, 4),
	)
	engine := NewEngine(Rules{})

	vacancy := findVacancy(t, engine.Vacancies(tr), "S1-1")
	assert.Equal(t, 2, vacancy.FromIdx)
	assert.Equal(t, 4, vacancy.ToIdx)

	assert.Equal(t, []string{"R2"}, pnrs(engine.Eligible(tr, vacancy)))

	result, err := engine.Process(tr)
	require.NoError(t, err)
	assert.Equal(t, []Allocation{{PNR: "R2", CoachNo: "S1", BerthNo: 1}}, result.Allocated)

	location, found := tr.FindPassenger("R2")
	require.True(t, found)
	assert.Equal(t, "S1-1", location.Berth.Label())
	assert.Equal(t, rail.PNRStatusConfirmed, location.Passenger.PNRStatus)

	location, _ = tr.FindPassenger("R1")
	assert.Equal(t, rail.PNRStatusRAC, location.Passenger.PNRStatus)
}

func TestEligibleOrdering(t *testing.T) {
	tr := atStation(t, train.Config{}, 0,
		traintest.RAC("R3", 3, "S1", 23, 0, 4),
		traintest.RAC("R1B", 1, "S1", 15, 0, 4),
		traintest.RAC("R1A", 1, "S1", 7, 0, 4),
		traintest.RAC("R2", 2, "S1", 7, 0, 4),
	)
	engine := NewEngine(Rules{})

	vacancy := findVacancy(t, engine.Vacancies(tr), "S1-1")
	assert.Equal(t, []string{"R1B", "R1A", "R2", "R3"}, pnrs(engine.Eligible(tr, vacancy)))
}

func TestEligibleMatchesClass(t *testing.T) {
	ac := traintest.RAC("A1", 1, "B1", 7, 0, 4)
	ac.Class = rail.CoachClassAC3Tier

	tr := atStation(t, train.Config{}, 0, ac, traintest.RAC("S", 2, "S1", 7, 0, 4))
	engine := NewEngine(Rules{})
	vacancies := engine.Vacancies(tr)

	assert.Equal(t, []string{"S"}, pnrs(engine.Eligible(tr, findVacancy(t, vacancies, "S1-1"))))
	assert.Equal(t, []string{"A1"}, pnrs(engine.Eligible(tr, findVacancy(t, vacancies, "B1-1"))))
}

func TestEligibleRules(t *testing.T) {
	tr := atStation(t, train.Config{}, 2,
		traintest.RAC("R1", 1, "S1", 7, 2, 3),
		traintest.RAC("R2", 2, "S1", 7, 2, 4),
		traintest.RAC("R3", 3, "S1", 15, 3, 4),
	)

	var vacancy rail.Vacancy
	tr.Read(func(s *train.State) {
		vacancy, _ = s.FreeIntervalFrom(s.Berth("S1", 1), 2)
	})

	assert.Equal(t, []string{"R1", "R2", "R3"}, pnrs(NewEngine(Rules{}).Eligible(tr, vacancy)))
	assert.Equal(t, []string{"R2", "R3"}, pnrs(NewEngine(Rules{MinJourneyKm: 100}).Eligible(tr, vacancy)))
	assert.Equal(t, []string{"R1", "R2"}, pnrs(NewEngine(Rules{RequireBoarded: true}).Eligible(tr, vacancy)))
}

func TestVacanciesAreOrdered(t *testing.T) {
	tr := atStation(t, train.Config{}, 0, traintest.Confirmed("C1", "S1", 2, 0, 4))

	vacancies := NewEngine(Rules{}).Vacancies(tr)
	require.Len(t, vacancies, 72+64-1)
	assert.Equal(t, "S1-1", vacancies[0].Label())
	assert.Equal(t, "S1-3", vacancies[1].Label())
	assert.Equal(t, "B1-1", vacancies[71].Label())
	assert.False(t, hasVacancy(vacancies, "S1-2"))
}

func TestProcessIsDeterministic(t *testing.T) {
	build := func() *train.Train {
		return atStation(t, train.Config{}, 2,
			traintest.Confirmed("C1", "S1", 1, 0, 2),
			traintest.Confirmed("C2", "S1", 2, 0, 2),
			traintest.RAC("R1", 1, "S1", 7, 2, 4),
			traintest.RAC("R2", 2, "S1", 7, 2, 4),
			traintest.RAC("R3", 3, "S1", 15, 2, 3),
		)
	}

	first, err := NewEngine(Rules{}).Process(build())
	require.NoError(t, err)
	second, err := NewEngine(Rules{}).Process(build())
	require.NoError(t, err)

	assert.Equal(t, first.Allocated, second.Allocated)
	assert.Equal(t, []Allocation{
		{PNR: "R1", CoachNo: "S1", BerthNo: 1},
		{PNR: "R2", CoachNo: "S1", BerthNo: 2},
		{PNR: "R3", CoachNo: "S1", BerthNo: 3},
	}, first.Allocated)
}

func TestProcessOffersToOnlinePassengers(t *testing.T) {
	clock := traintest.NewClock()
	tr := atStation(t, train.Config{Clock: clock.Now, OfferTTL: time.Hour}, 2,
		traintest.Confirmed("C1", "S1", 1, 0, 2),
		traintest.Confirmed("C2", "S1", 2, 0, 2),
		traintest.Online(traintest.RAC("R1", 1, "S1", 7, 2, 4)),
		traintest.RAC("R2", 2, "S1", 7, 2, 4),
	)
	engine := NewEngine(Rules{})

	result, err := engine.Process(tr)
	require.NoError(t, err)

	require.Len(t, result.Offered, 1)
	assert.Equal(t, "R1", result.Offered[0].PNR)
	assert.Equal(t, "S1-1", result.Offered[0].ProposedBerthLabel())
	assert.Equal(t, []Allocation{{PNR: "R2", CoachNo: "S1", BerthNo: 2}}, result.Allocated)

	location, _ := tr.FindPassenger("R1")
	assert.Equal(t, rail.PNRStatusRAC, location.Passenger.PNRStatus)

	assert.False(t, hasVacancy(engine.Vacancies(tr), "S1-1"), "offered berth is reserved")

	again, err := engine.Process(tr)
	require.NoError(t, err)
	assert.Empty(t, again.Offered)
	assert.Empty(t, again.Allocated)

	clock.Advance(2 * time.Hour)
	assert.True(t, hasVacancy(engine.Vacancies(tr), "S1-1"), "expired offer returns the vacancy")

	renewed, err := engine.Process(tr)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed.Expired)
	require.Len(t, renewed.Offered, 1)
	assert.Equal(t, "R1", renewed.Offered[0].PNR)
}

func TestDeclinedBerthIsNotOfferedAgain(t *testing.T) {
	tr := atStation(t, train.Config{}, 2,
		traintest.Confirmed("C1", "S1", 1, 0, 2),
		traintest.Online(traintest.RAC("R1", 1, "S1", 7, 2, 4)),
		traintest.RAC("R2", 2, "S1", 7, 2, 4),
	)
	engine := NewEngine(Rules{})

	result, err := engine.Process(tr)
	require.NoError(t, err)
	require.Len(t, result.Offered, 1)
	assert.Equal(t, "S1-1", result.Offered[0].ProposedBerthLabel())
	assert.Equal(t, []Allocation{{PNR: "R2", CoachNo: "S1", BerthNo: 2}}, result.Allocated)

	declined, err := upgrade.NewWorkflow(tr).Respond("R1", false, "travelling with family")
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusRejected, declined.Status)

	vacancy := findVacancy(t, engine.Vacancies(tr), "S1-1")
	assert.Empty(t, engine.Eligible(tr, vacancy))

	again, err := engine.Process(tr)
	require.NoError(t, err)
	require.Len(t, again.Offered, 1)
	assert.Equal(t, "R1", again.Offered[0].PNR)
	assert.Equal(t, "S1-3", again.Offered[0].ProposedBerthLabel())

	history := upgrade.NewWorkflow(tr).History("R1")
	require.Len(t, history, 2)
	assert.Equal(t, "S1-1", history[0].ProposedBerthLabel())
	assert.Equal(t, rail.UpgradeStatusRejected, history[0].Status)
	assert.Equal(t, "S1-3", history[1].ProposedBerthLabel())
	assert.Equal(t, rail.UpgradeStatusPending, history[1].Status)
}

func TestApplyReallocation(t *testing.T) {
	tr := atStation(t, train.Config{}, 1,
		traintest.Confirmed("C1", "S1", 1, 0, 4),
		traintest.RAC("R1", 1, "S1", 7, 0, 4),
		traintest.RAC("R2", 2, "S1", 7, 0, 4),
		traintest.Online(traintest.RAC("R3", 3, "S1", 15, 1, 4)),
	)
	engine := NewEngine(Rules{})

	require.NoError(t, tr.Write(func(s *train.State) error {
		_, err := upgrade.Offer(s, "R3", "S1", 4)
		return err
	}))

	results, err := engine.ApplyReallocation(tr, []Allocation{
		{PNR: "R1", CoachNo: "B1", BerthNo: 1},
		{PNR: "R1", CoachNo: "S1", BerthNo: 1},
		{PNR: "R1", CoachNo: "S1", BerthNo: 2},
		{PNR: "R2", CoachNo: "S1", BerthNo: 2},
		{PNR: "R2", CoachNo: "S1", BerthNo: 4},
		{PNR: "", CoachNo: "S1", BerthNo: 3},
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.False(t, results[0].Success, "class mismatch")
	assert.False(t, results[1].Success, "occupied")
	assert.True(t, results[2].Success, results[2].Message)
	assert.False(t, results[3].Success, "already taken in this batch")
	assert.False(t, results[4].Success, "reserved by a pending offer")
	assert.False(t, results[5].Success, "missing PNR")

	tr.Read(func(s *train.State) {
		assert.Len(t, s.Berth("S1", 2).Segments, 1)
		assert.Equal(t, rail.PNRStatusRAC, s.Passenger("R2").PNRStatus)
		assert.Equal(t, "S1-7", s.Passenger("R2").BerthLabel())
	})
}

func TestConcurrentNoShowAndReallocation(t *testing.T) {
	for i := 0; i < 25; i++ {
		tr, err := traintest.New(train.Config{},
			traintest.Confirmed("C1", "S1", 1, 0, 4),
			traintest.RAC("R1", 1, "S1", 7, 0, 4),
			traintest.RAC("R2", 2, "S1", 7, 0, 4),
		)
		require.NoError(t, err)
		require.NoError(t, tr.StartJourney())

		engine := NewEngine(Rules{})
		results := make([][]AllocationResult, 2)

		var wg conc.WaitGroup
		for worker, pnr := range []string{"R1", "R2"} {
			wg.Go(func() {
				_, _ = tr.MarkNoShow("C1", "absent at boarding")
				var err error
				results[worker], err = engine.ApplyReallocation(tr, []Allocation{{PNR: pnr, CoachNo: "S1", BerthNo: 1}})
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		successes := 0
		for _, result := range results {
			if result[0].Success {
				successes++
			}
		}
		assert.Equal(t, 1, successes)

		tr.Read(func(s *train.State) {
			berth := s.Berth("S1", 1)
			assert.Len(t, berth.Segments, 1)
			assert.Equal(t, 1, berth.MaxOverlap(0, 4))
		})
	}
}

func TestEligibilityMatrix(t *testing.T) {
	tr := atStation(t, train.Config{}, 2,
		traintest.Confirmed("C1", "S1", 1, 0, 2),
		traintest.RAC("R1", 1, "S1", 7, 2, 4),
	)

	matrix := NewEngine(Rules{}).EligibilityMatrix(tr)
	require.NotEmpty(t, matrix)
	assert.Equal(t, "S1-1", matrix[0].Vacancy.Label())
	require.Len(t, matrix[0].Candidates, 1)
	assert.Equal(t, "R1", matrix[0].Candidates[0].PNR)

	for _, entry := range matrix {
		if entry.Vacancy.Class == rail.CoachClassAC3Tier {
			assert.Empty(t, entry.Candidates)
		}
	}
}
