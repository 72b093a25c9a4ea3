package stage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }
func i64Ptr(v int64) *int64     { return &v }

var resultCols = []string{"rank", "rider", "team", "time", "points", "classification"}

func TestDailyStageToday(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)
	now := time.Date(2026, 7, 14, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).
		WillReturnRows(pgxmock.NewRows([]string{"stage_id", "date"}).AddRow(42, time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)))

	id, err := svc.DailyStage(context.Background())
	if err != nil || id != 42 {
		t.Fatalf("expected stage 42, got %d, %v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDailyStagePicksNewStage(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)
	now := time.Date(2026, 7, 14, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).
		WillReturnRows(pgxmock.NewRows([]string{"stage_id", "date"}).AddRow(41, now.AddDate(0, 0, -1)))
	mock.ExpectExec(`INSERT INTO racedata.daily`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).
		WillReturnRows(pgxmock.NewRows([]string{"stage_id", "date"}).AddRow(99, now))

	id, err := svc.DailyStage(context.Background())
	if err != nil || id != 99 {
		t.Fatalf("expected new stage 99, got %d, %v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDailyStageEmptyTable(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO racedata.daily`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).
		WillReturnRows(pgxmock.NewRows([]string{"stage_id", "date"}).AddRow(7, time.Now()))

	if id, err := svc.DailyStage(context.Background()); err != nil || id != 7 {
		t.Fatalf("expected stage 7, got %d, %v", id, err)
	}
}

func TestDailyStageQueryError(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)
	mock.ExpectQuery(`SELECT stage_id, date FROM racedata.daily`).WillReturnError(errors.New("db down"))

	if _, err := svc.DailyStage(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRandomAndAllStages(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`SELECT racedata.get_random_stage_id\(\)`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectQuery(`SELECT stage_id FROM racedata.stages`).
		WillReturnRows(pgxmock.NewRows([]string{"stage_id"}).AddRow(1).AddRow(2).AddRow(3))

	if id, err := svc.RandomStage(context.Background()); err != nil || id != 12 {
		t.Fatalf("random stage: %d, %v", id, err)
	}
	ids, err := svc.AllStages(context.Background())
	if err != nil || len(ids) != 3 || ids[2] != 3 {
		t.Fatalf("all stages: %v, %v", ids, err)
	}
}

func TestInfoMapsEnums(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`FROM racedata.races_stages`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"gt", "year", "stage_number", "stage_type", "stage_start", "stage_end"}).
			AddRow("VUELTA", 2023, 13, "ITT", "Formigal", "Col du Tourmalet"))

	info, err := svc.Info(context.Background(), 5)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.GrandTour != GrandTourVuelta || info.StageType != StageTypeITT || info.StageNumber != 13 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestInfoErrors(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`FROM racedata.races_stages`).WithArgs(404).WillReturnError(pgx.ErrNoRows)
	if _, err := svc.Info(context.Background(), 404); !errors.Is(err, ErrNotFound) || !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNotFound wrapping ErrNoRows, got %v", err)
	}

	mock.ExpectQuery(`FROM racedata.races_stages`).
		WithArgs(6).
		WillReturnRows(pgxmock.NewRows([]string{"gt", "year", "stage_number", "stage_type", "stage_start", "stage_end"}).
			AddRow("TOUR_DOWN_UNDER", 2023, 1, "ROAD", "a", "b"))
	if _, err := svc.Info(context.Background(), 6); err == nil {
		t.Fatalf("expected error for unknown grand tour code")
	}
}

func TestTrackAndElevation(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`SELECT ST_AsGeoJSON`).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"geojson"}).AddRow(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`))
	mock.ExpectQuery(`FROM racedata.stages_elevation`).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"distance", "elevation"}).AddRow(0.0, 100.0).AddRow(50.0, 105.0))

	track, err := svc.Track(context.Background(), 3)
	if err != nil || track == "" {
		t.Fatalf("track: %q, %v", track, err)
	}
	points, err := svc.Elevation(context.Background(), 3)
	if err != nil || len(points) != 2 || points[1].Elevation != 105 {
		t.Fatalf("elevation: %v, %v", points, err)
	}
}

func TestGradientUsesCache(t *testing.T) {
	mock := newMock(t)
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	svc := NewService(mock, rdb, time.Hour, nil)

	mock.ExpectQuery(`FROM racedata.stages_elevation`).
		WithArgs(8).
		WillReturnRows(pgxmock.NewRows([]string{"distance", "elevation"}).
			AddRow(0.0, 0.0).AddRow(100.0, 10.0).AddRow(200.0, 10.0))

	first, err := svc.Gradient(context.Background(), 8, 50)
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
	if len(first) != 5 || first[0].Gradient != nil || *first[1].Gradient != 10 {
		t.Fatalf("unexpected gradient %+v", first)
	}

	key := gradientCacheKey(8, 50)
	if !s.Exists(key) {
		t.Fatalf("expected %s to be cached", key)
	}
	if ttl := s.TTL(key); ttl != time.Hour {
		t.Fatalf("expected ttl of an hour, got %v", ttl)
	}

	second, err := svc.Gradient(context.Background(), 8, 50)
	if err != nil || len(second) != len(first) {
		t.Fatalf("cached gradient: %v, %v", second, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected a single database read: %v", err)
	}
}

func TestGradientRecomputesCorruptCache(t *testing.T) {
	mock := newMock(t)
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	svc := NewService(mock, rdb, time.Hour, nil)

	_ = s.Set(gradientCacheKey(8, 10), "{not json")
	mock.ExpectQuery(`FROM racedata.stages_elevation`).
		WithArgs(8).
		WillReturnRows(pgxmock.NewRows([]string{"distance", "elevation"}).AddRow(0.0, 0.0).AddRow(10.0, 1.0))

	samples, err := svc.Gradient(context.Background(), 8, 10)
	if err != nil || len(samples) != 2 {
		t.Fatalf("expected recomputed profile, got %v, %v", samples, err)
	}
	var cached []json.RawMessage
	raw, _ := s.Get(gradientCacheKey(8, 10))
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || len(cached) != 2 {
		t.Fatalf("expected cache to be repaired, got %s", raw)
	}
}

func TestGradientWithoutElevation(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)
	mock.ExpectQuery(`FROM racedata.stages_elevation`).
		WithArgs(9).
		WillReturnRows(pgxmock.NewRows([]string{"distance", "elevation"}))

	if _, err := svc.Gradient(context.Background(), 9, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResults(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`FROM racedata.riders_teams_results`).
		WithArgs(1, 3).
		WillReturnRows(pgxmock.NewRows(resultCols).
			AddRow(1, strPtr("Tadej Pogačar"), strPtr("UAE Team Emirates"), f64Ptr(15123), (*int64)(nil), "general").
			AddRow(1, (*string)(nil), strPtr("Visma"), (*float64)(nil), i64Ptr(12), "teams"))

	results, err := svc.Results(context.Background(), 1, 3)
	if err != nil || len(results) != 2 {
		t.Fatalf("results: %v, %v", results, err)
	}
	if results[0].Time == nil || results[0].Time.Duration != 15123*time.Second {
		t.Fatalf("unexpected time %v", results[0].Time)
	}
	if results[0].View().Classification != "gc" {
		t.Fatalf("expected general classification to be labelled gc")
	}
	if answer, _ := results[1].Answer(); answer != "Visma" {
		t.Fatalf("expected team answer, got %s", answer)
	}

	raw, err := json.Marshal(results[0].View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	if decoded["time"] != "4h12m3s" || decoded["classification"] != "gc" {
		t.Fatalf("unexpected result json %s", raw)
	}
	if _, ok := decoded["points"]; ok {
		t.Fatalf("expected null points to be omitted in %s", raw)
	}
}

func TestResultsForAndResult(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	if _, err := svc.ResultsFor(context.Background(), 1, "overall", 5); !errors.Is(err, ErrInvalidClassification) {
		t.Fatalf("expected ErrInvalidClassification, got %v", err)
	}
	if _, err := svc.Result(context.Background(), 1, ClassificationStage, 0); !errors.Is(err, ErrInvalidRank) {
		t.Fatalf("expected ErrInvalidRank, got %v", err)
	}

	mock.ExpectQuery(`classification = \$2 AND rank <= \$3`).
		WithArgs(1, "points", 2).
		WillReturnRows(pgxmock.NewRows(resultCols).
			AddRow(1, strPtr("A"), strPtr("T1"), (*float64)(nil), i64Ptr(300), "points").
			AddRow(2, strPtr("B"), strPtr("T2"), (*float64)(nil), i64Ptr(250), "points"))
	list, err := svc.ResultsFor(context.Background(), 1, ClassificationPoints, 2)
	if err != nil || len(list) != 2 || *list[1].Points != 250 {
		t.Fatalf("results for: %v, %v", list, err)
	}

	mock.ExpectQuery(`classification = \$2 AND rank = \$3`).
		WithArgs(1, "stage", 4).
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.Result(context.Background(), 1, ClassificationStage, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRidersTeamsCounts(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`SELECT DISTINCT rider`).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"rider"}).AddRow("A").AddRow("B"))
	mock.ExpectQuery(`SELECT DISTINCT team`).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"team"}).AddRow("T"))
	mock.ExpectQuery(`FROM racedata.results_valid`).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"classification", "count"}).
			AddRow("stage", 150).AddRow("general", 150).AddRow("teams", 22))

	riders, err := svc.Riders(context.Background(), 2)
	if err != nil || len(riders) != 2 {
		t.Fatalf("riders: %v, %v", riders, err)
	}
	teams, err := svc.Teams(context.Background(), 2)
	if err != nil || len(teams) != 1 {
		t.Fatalf("teams: %v, %v", teams, err)
	}
	counts, err := svc.ValidResultsCount(context.Background(), 2)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Stage != 150 || counts.General != 150 || counts.Teams != 22 || counts.Points != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestVerifyInfo(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	if _, err := svc.VerifyInfo(context.Background(), 1, "winner", "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}

	for _, guess := range []string{"giro d'italia", "  GIRO D'ITALIA "} {
		mock.ExpectQuery(`FROM racedata.races_stages`).
			WithArgs(1).
			WillReturnRows(pgxmock.NewRows([]string{"gt", "year", "stage_number", "stage_type", "stage_start", "stage_end"}).
				AddRow("GIRO", 2024, 16, "ROAD", "Livigno", "Santa Cristina Valgardena"))
		ok, err := svc.VerifyInfo(context.Background(), 1, FieldGrandTour, guess)
		if err != nil || !ok {
			t.Fatalf("expected %q to match, got %v, %v", guess, ok, err)
		}
	}

	mock.ExpectQuery(`FROM racedata.races_stages`).
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"gt", "year", "stage_number", "stage_type", "stage_start", "stage_end"}).
			AddRow("GIRO", 2024, 16, "ROAD", "Livigno", "Santa Cristina Valgardena"))
	ok, err := svc.VerifyInfo(context.Background(), 1, FieldYear, "2023")
	if err != nil || ok {
		t.Fatalf("expected wrong year to fail, got %v, %v", ok, err)
	}
}

func TestVerifyResult(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, time.Hour, nil)

	mock.ExpectQuery(`classification = \$2 AND rank = \$3`).
		WithArgs(1, "stage", 1).
		WillReturnRows(pgxmock.NewRows(resultCols).
			AddRow(1, strPtr("Tadej Pogačar"), strPtr("UAE"), f64Ptr(100), (*int64)(nil), "stage"))
	ok, err := svc.VerifyResult(context.Background(), 1, ClassificationStage, 1, "tadej_pogacar")
	if err != nil || !ok {
		t.Fatalf("expected accent-insensitive match, got %v, %v", ok, err)
	}

	mock.ExpectQuery(`classification = \$2 AND rank = \$3`).
		WithArgs(1, "teams", 1).
		WillReturnRows(pgxmock.NewRows(resultCols).
			AddRow(1, (*string)(nil), (*string)(nil), (*float64)(nil), (*int64)(nil), "teams"))
	if _, err := svc.VerifyResult(context.Background(), 1, ClassificationTeams, 1, "x"); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
}
