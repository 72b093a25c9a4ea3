package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"backend-stagehunter/internal/db"
	"backend-stagehunter/internal/profile"
)

type Service struct {
	db       db.Querier
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(q db.Querier, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       q,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "stage"),
		now:      time.Now,
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DailyStage returns today's stage, picking a new random one when the latest
// daily entry is from an earlier day.
func (s *Service) DailyStage(ctx context.Context) (int, error) {
	id, date, err := s.latestDaily(ctx)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if err == nil && sameDay(date, s.now()) {
		return id, nil
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO racedata.daily (stage_id)
		SELECT racedata.get_random_stage_id()
	`); err != nil {
		return 0, err
	}
	s.logger.Info("picked new daily stage")

	id, _, err = s.latestDaily(ctx)
	if err != nil {
		return 0, notFound(err)
	}
	return id, nil
}

func (s *Service) latestDaily(ctx context.Context) (int, time.Time, error) {
	var id int
	var date time.Time
	err := s.db.QueryRow(ctx, `
		SELECT stage_id, date FROM racedata.daily
		WHERE daily_id = (SELECT MAX(daily_id) FROM racedata.daily)
		LIMIT 1
	`).Scan(&id, &date)
	return id, date, err
}

func (s *Service) RandomStage(ctx context.Context) (int, error) {
	var id int
	if err := s.db.QueryRow(ctx, `SELECT racedata.get_random_stage_id()`).Scan(&id); err != nil {
		return 0, notFound(err)
	}
	return id, nil
}

func (s *Service) AllStages(ctx context.Context) ([]int, error) {
	rows, err := s.db.Query(ctx, `SELECT stage_id FROM racedata.stages ORDER BY stage_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) Info(ctx context.Context, stageID int) (Info, error) {
	var info Info
	var gt, st string
	row := s.db.QueryRow(ctx, `
		SELECT gt, year, stage_number, stage_type, stage_start, stage_end
		FROM racedata.races_stages
		WHERE stage_id = $1
		LIMIT 1
	`, stageID)
	if err := row.Scan(&gt, &info.Year, &info.StageNumber, &st, &info.StageStart, &info.StageEnd); err != nil {
		return Info{}, notFound(err)
	}

	var err error
	if info.GrandTour, err = mapEnum("grand tour", gt, grandTours); err != nil {
		return Info{}, err
	}
	if info.StageType, err = mapEnum("stage type", st, stageTypes); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Track returns the stage route as a GeoJSON geometry in WGS84.
func (s *Service) Track(ctx context.Context, stageID int) (string, error) {
	var track string
	row := s.db.QueryRow(ctx, `
		SELECT ST_AsGeoJSON(ST_Transform(ST_Force2D(the_geom), 4326))
		FROM racedata.stages s
		JOIN geog.tracks t ON s.gpx_id = t.track_id
		WHERE s.stage_id = $1
		LIMIT 1
	`, stageID)
	if err := row.Scan(&track); err != nil {
		return "", notFound(err)
	}
	return track, nil
}

func (s *Service) Elevation(ctx context.Context, stageID int) ([]profile.ElevationPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT distance, elevation
		FROM racedata.stages_elevation
		WHERE stage_id = $1
		ORDER BY distance
	`, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []profile.ElevationPoint{}
	for rows.Next() {
		var p profile.ElevationPoint
		if err := rows.Scan(&p.Distance, &p.Elevation); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func gradientCacheKey(stageID int, resolution float64) string {
	return "stage:" + strconv.Itoa(stageID) + ":gradient:" + strconv.FormatFloat(resolution, 'f', -1, 64)
}

// Gradient returns the stage's gradient profile sampled every resolution
// metres. Profiles are cached in Redis when a client is configured; cache
// failures only cost a recomputation.
func (s *Service) Gradient(ctx context.Context, stageID int, resolution float64) ([]profile.Sample, error) {
	key := gradientCacheKey(stageID, resolution)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var samples []profile.Sample
			if err := json.Unmarshal(raw, &samples); err == nil {
				return samples, nil
			}
			s.logger.Warn("discard corrupt gradient cache entry", "key", key)
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("gradient cache read", "key", key, "error", err)
		}
	}

	points, err := s.Elevation(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no elevation for stage %d", ErrNotFound, stageID)
	}
	samples, err := profile.Resample(points, resolution)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(samples); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("gradient cache write", "key", key, "error", err)
			}
		}
	}
	return samples, nil
}

const resultColumns = `rank, rider, team, EXTRACT(EPOCH FROM time)::float8, points, classification`

func scanResults(rows pgx.Rows) ([]Result, error) {
	defer rows.Close()
	results := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResult(row pgx.Row) (Result, error) {
	var r Result
	var seconds *float64
	var class string
	if err := row.Scan(&r.Rank, &r.Rider, &r.Team, &seconds, &r.Points, &class); err != nil {
		return Result{}, err
	}
	r.Time = durationFromSeconds(seconds)
	r.Classification = Classification(class)
	return r, nil
}

// Results returns the top n of every classification, ordered by
// classification then rank.
func (s *Service) Results(ctx context.Context, stageID, topN int) ([]Result, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+resultColumns+`
		FROM racedata.riders_teams_results
		WHERE stage_id = $1 AND rank <= $2
		ORDER BY classification, rank ASC
	`, stageID, topN)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

func (s *Service) ResultsFor(ctx context.Context, stageID int, c Classification, topN int) ([]Result, error) {
	if _, err := ParseClassification(string(c)); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+resultColumns+`
		FROM racedata.riders_teams_results
		WHERE stage_id = $1 AND classification = $2 AND rank <= $3
		ORDER BY rank ASC
	`, stageID, string(c), topN)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

func (s *Service) Result(ctx context.Context, stageID int, c Classification, rank int) (Result, error) {
	if _, err := ParseClassification(string(c)); err != nil {
		return Result{}, err
	}
	if rank < 1 {
		return Result{}, ErrInvalidRank
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM racedata.riders_teams_results
		WHERE stage_id = $1 AND classification = $2 AND rank = $3
		LIMIT 1
	`, stageID, string(c), rank)
	r, err := scanResult(row)
	if err != nil {
		return Result{}, notFound(err)
	}
	return r, nil
}

func (s *Service) distinct(ctx context.Context, column string, stageID int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT `+column+`
		FROM racedata.riders_teams_results
		WHERE stage_id = $1 AND `+column+` IS NOT NULL
		ORDER BY `+column, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Service) Riders(ctx context.Context, stageID int) ([]string, error) {
	return s.distinct(ctx, "rider", stageID)
}

func (s *Service) Teams(ctx context.Context, stageID int) ([]string, error) {
	return s.distinct(ctx, "team", stageID)
}

func (s *Service) ValidResultsCount(ctx context.Context, stageID int) (ValidResultsCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT classification, COUNT(*)
		FROM racedata.results_valid
		WHERE stage_id = $1
		GROUP BY classification
	`, stageID)
	if err != nil {
		return ValidResultsCount{}, err
	}
	defer rows.Close()

	var counts ValidResultsCount
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return ValidResultsCount{}, err
		}
		counts.add(Classification(class), n)
	}
	return counts, rows.Err()
}

// VerifyInfo checks a guess for one info field.
func (s *Service) VerifyInfo(ctx context.Context, stageID int, field, guess string) (bool, error) {
	if _, err := (Info{}).Field(field); err != nil {
		return false, err
	}
	info, err := s.Info(ctx, stageID)
	if err != nil {
		return false, err
	}
	answer, err := info.Field(field)
	if err != nil {
		return false, err
	}
	return AreNormEqual(guess, answer), nil
}

// VerifyResult checks a rider or team guess for a classification place.
func (s *Service) VerifyResult(ctx context.Context, stageID int, c Classification, rank int, guess string) (bool, error) {
	r, err := s.Result(ctx, stageID, c, rank)
	if err != nil {
		return false, err
	}
	answer, err := r.Answer()
	if err != nil {
		return false, err
	}
	return AreNormEqual(guess, answer), nil
}
