package stage

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"backend-stagehunter/internal/colour"
	"backend-stagehunter/internal/geometry"
	"backend-stagehunter/internal/profile"
)

const cacheControl = "public, max-age=3600"

// RouteOptions carries the request defaults and the gradient colour mapping.
type RouteOptions struct {
	Resolution  float64
	TopN        int
	Mapper      colour.Mapper
	LegendStops int
	LegendTicks int
}

func (o RouteOptions) withDefaults() RouteOptions {
	if o.Resolution <= 0 {
		o.Resolution = 10
	}
	if o.TopN <= 0 {
		o.TopN = 1000
	}
	if o.Mapper.Scale == nil {
		o.Mapper = colour.DefaultMapper()
	}
	if o.LegendStops <= 0 {
		o.LegendStops = 100
	}
	if o.LegendTicks <= 0 {
		o.LegendTicks = 5
	}
	return o
}

// Colours is the fill under the elevation line plus its legend.
type Colours struct {
	Stops          []profile.ColourStop `json:"stops"`
	MaxAbsGradient float64              `json:"max_abs_gradient"`
	Legend         []colour.LegendStop  `json:"legend"`
	Ticks          []colour.LegendTick  `json:"ticks"`
}

func NewColours(samples []profile.Sample, opts RouteOptions) Colours {
	opts = opts.withDefaults()
	maxAbs := profile.MaxAbsGradient(samples)
	return Colours{
		Stops:          profile.ColourMap(samples, opts.Mapper),
		MaxAbsGradient: maxAbs,
		Legend:         opts.Mapper.Legend(maxAbs, opts.LegendStops),
		Ticks:          colour.LegendTicks(maxAbs, opts.LegendTicks),
	}
}

// GPXPreview is the profile of an uploaded GPX route.
type GPXPreview struct {
	Track    *geojson.Geometry `json:"track"`
	Gradient []profile.Sample  `json:"gradient"`
	Colours  Colours           `json:"colours"`
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidClassification),
		errors.Is(err, ErrInvalidRank),
		errors.Is(err, profile.ErrResolution):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func stageID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid stage id")
	}
	return id, nil
}

func classificationParam(c *fiber.Ctx) (Classification, error) {
	class, err := ParseClassification(c.Params("classification"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return class, nil
}

func rankParam(c *fiber.Ctx) (int, error) {
	rank, err := c.ParamsInt("rank")
	if err != nil || rank < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid rank")
	}
	return rank, nil
}

func resolutionQuery(c *fiber.Ctx, def float64) (float64, error) {
	raw := c.Query("resolution")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "resolution must be a positive number")
	}
	return v, nil
}

func topNQuery(c *fiber.Ctx, def int) (int, error) {
	topN := c.QueryInt("topN", def)
	if topN < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "topN must be positive")
	}
	return topN, nil
}

func guessQuery(c *fiber.Ctx) (string, error) {
	v := c.Query("v")
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "query parameter v is required")
	}
	return v, nil
}

func views(results []Result) []ResultView {
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		out = append(out, r.View())
	}
	return out
}

func RegisterRoutes(r fiber.Router, svc *Service, opts RouteOptions) {
	opts = opts.withDefaults()

	r.Get("/daily", func(c *fiber.Ctx) error {
		id, err := svc.DailyStage(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(id)
	})

	r.Get("/random", func(c *fiber.Ctx) error {
		id, err := svc.RandomStage(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(id)
	})

	r.Get("/stages", func(c *fiber.Ctx) error {
		ids, err := svc.AllStages(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(ids)
	})

	r.Get("/stages/:id/info", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		info, err := svc.Info(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(info)
	})

	r.Get("/stages/:id/track", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		track, err := svc.Track(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		c.Set(fiber.HeaderCacheControl, cacheControl)
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(track)
	})

	r.Get("/stages/:id/elevation", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		points, err := svc.Elevation(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		c.Set(fiber.HeaderCacheControl, cacheControl)
		return c.JSON(points)
	})

	r.Get("/stages/:id/gradient", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		resolution, err := resolutionQuery(c, opts.Resolution)
		if err != nil {
			return err
		}
		samples, err := svc.Gradient(c.Context(), id, resolution)
		if err != nil {
			return statusFor(err)
		}
		c.Set(fiber.HeaderCacheControl, cacheControl)
		return c.JSON(samples)
	})

	r.Get("/stages/:id/colours", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		resolution, err := resolutionQuery(c, opts.Resolution)
		if err != nil {
			return err
		}
		samples, err := svc.Gradient(c.Context(), id, resolution)
		if err != nil {
			return statusFor(err)
		}
		c.Set(fiber.HeaderCacheControl, cacheControl)
		return c.JSON(NewColours(samples, opts))
	})

	r.Get("/stages/:id/results", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		topN, err := topNQuery(c, opts.TopN)
		if err != nil {
			return err
		}
		results, err := svc.Results(c.Context(), id, topN)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(views(results))
	})

	r.Get("/stages/:id/results/:classification", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		class, err := classificationParam(c)
		if err != nil {
			return err
		}
		topN, err := topNQuery(c, opts.TopN)
		if err != nil {
			return err
		}
		results, err := svc.ResultsFor(c.Context(), id, class, topN)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(views(results))
	})

	r.Get("/stages/:id/results/:classification/:rank", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		class, err := classificationParam(c)
		if err != nil {
			return err
		}
		rank, err := rankParam(c)
		if err != nil {
			return err
		}
		result, err := svc.Result(c.Context(), id, class, rank)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(result.View())
	})

	r.Get("/stages/:id/riders", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		riders, err := svc.Riders(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(riders)
	})

	r.Get("/stages/:id/teams", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		teams, err := svc.Teams(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(teams)
	})

	r.Get("/stages/:id/counts", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		counts, err := svc.ValidResultsCount(c.Context(), id)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(counts)
	})

	r.Get("/stages/:id/verify/info/:field", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		guess, err := guessQuery(c)
		if err != nil {
			return err
		}
		ok, err := svc.VerifyInfo(c.Context(), id, c.Params("field"), guess)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(ok)
	})

	r.Get("/stages/:id/verify/results/:classification/:rank", func(c *fiber.Ctx) error {
		id, err := stageID(c)
		if err != nil {
			return err
		}
		class, err := classificationParam(c)
		if err != nil {
			return err
		}
		rank, err := rankParam(c)
		if err != nil {
			return err
		}
		guess, err := guessQuery(c)
		if err != nil {
			return err
		}
		ok, err := svc.VerifyResult(c.Context(), id, class, rank, guess)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(ok)
	})

	r.Post("/gpx/profile", func(c *fiber.Ctx) error {
		resolution, err := resolutionQuery(c, opts.Resolution)
		if err != nil {
			return err
		}
		track, points, err := geometry.TrackFromGPX(c.Body())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		samples, err := profile.Resample(points, resolution)
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(GPXPreview{
			Track:    geojson.NewGeometry(track),
			Gradient: samples,
			Colours:  NewColours(samples, opts),
		})
	})
}
