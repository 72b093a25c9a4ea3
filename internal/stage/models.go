package stage

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidField          = errors.New("invalid info field")
	ErrInvalidClassification = errors.New("invalid result classification")
	ErrInvalidRank           = errors.New("rank must be positive")
	ErrNoAnswer              = errors.New("result has neither rider nor team")
)

type GrandTour string

const (
	GrandTourTour   GrandTour = "Tour de France"
	GrandTourVuelta GrandTour = "Vuelta a España"
	GrandTourGiro   GrandTour = "Giro d'Italia"
)

var grandTours = map[string]GrandTour{
	"TOUR":   GrandTourTour,
	"VUELTA": GrandTourVuelta,
	"GIRO":   GrandTourGiro,
}

type StageType string

const (
	StageTypeRoad     StageType = "Road"
	StageTypeITT      StageType = "ITT"
	StageTypeTTT      StageType = "TTT"
	StageTypePrologue StageType = "Prologue"
)

var stageTypes = map[string]StageType{
	"ROAD":     StageTypeRoad,
	"ITT":      StageTypeITT,
	"TTT":      StageTypeTTT,
	"PROLOGUE": StageTypePrologue,
}

// Classification is the code a result table is stored under, as used in
// request paths.
type Classification string

const (
	ClassificationStage     Classification = "stage"
	ClassificationGeneral   Classification = "general"
	ClassificationPoints    Classification = "points"
	ClassificationMountains Classification = "mountains"
	ClassificationYouth     Classification = "youth"
	ClassificationTeams     Classification = "teams"
)

var classificationLabels = map[Classification]string{
	ClassificationStage:     "stage",
	ClassificationGeneral:   "gc",
	ClassificationPoints:    "points",
	ClassificationMountains: "mountains",
	ClassificationYouth:     "youth",
	ClassificationTeams:     "teams",
}

func ParseClassification(s string) (Classification, error) {
	c := Classification(s)
	if _, ok := classificationLabels[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidClassification, s)
	}
	return c, nil
}

// Label is the name clients display, "gc" for the general classification.
func (c Classification) Label() string {
	if l, ok := classificationLabels[c]; ok {
		return l
	}
	return string(c)
}

func mapEnum[T ~string](kind, code string, mapping map[string]T) (T, error) {
	if v, ok := mapping[code]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unsupported %s value: %q", kind, code)
}

// Info fields a player can guess.
const (
	FieldGrandTour   = "grand_tour"
	FieldYear        = "year"
	FieldStageNumber = "stage_number"
	FieldStageType   = "stage_type"
	FieldStageStart  = "stage_start"
	FieldStageEnd    = "stage_end"
)

type Info struct {
	GrandTour   GrandTour `json:"grand_tour"`
	Year        int       `json:"year"`
	StageNumber int       `json:"stage_number"`
	StageType   StageType `json:"stage_type"`
	StageStart  string    `json:"stage_start"`
	StageEnd    string    `json:"stage_end"`
}

// Field returns the answer for one guessable info field as text.
func (i Info) Field(name string) (string, error) {
	switch name {
	case FieldGrandTour:
		return string(i.GrandTour), nil
	case FieldYear:
		return fmt.Sprint(i.Year), nil
	case FieldStageNumber:
		return fmt.Sprint(i.StageNumber), nil
	case FieldStageType:
		return string(i.StageType), nil
	case FieldStageStart:
		return i.StageStart, nil
	case FieldStageEnd:
		return i.StageEnd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, name)
}

type Result struct {
	Rank           int            `json:"rank"`
	Rider          *string        `json:"rider,omitempty"`
	Team           *string        `json:"team,omitempty"`
	Time           *Duration      `json:"time,omitempty"`
	Points         *int64         `json:"points,omitempty"`
	Classification Classification `json:"-"`
}

// Answer is the rider for individual classifications and the team otherwise.
func (r Result) Answer() (string, error) {
	if r.Rider != nil {
		return *r.Rider, nil
	}
	if r.Team != nil {
		return *r.Team, nil
	}
	return "", ErrNoAnswer
}

// Duration renders result times as Go duration strings ("4h12m3s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func durationFromSeconds(sec *float64) *Duration {
	if sec == nil {
		return nil
	}
	return &Duration{time.Duration(*sec * float64(time.Second))}
}

// ResultView is how a result is sent to clients.
type ResultView struct {
	Result
	Classification string `json:"classification"`
}

func (r Result) View() ResultView {
	return ResultView{Result: r, Classification: r.Classification.Label()}
}

type ValidResultsCount struct {
	Stage     int `json:"stage"`
	General   int `json:"general"`
	Points    int `json:"points"`
	Mountains int `json:"mountains"`
	Youth     int `json:"youth"`
	Teams     int `json:"teams"`
}

func (v *ValidResultsCount) add(c Classification, n int) {
	switch c {
	case ClassificationStage:
		v.Stage = n
	case ClassificationGeneral:
		v.General = n
	case ClassificationPoints:
		v.Points = n
	case ClassificationMountains:
		v.Mountains = n
	case ClassificationYouth:
		v.Youth = n
	case ClassificationTeams:
		v.Teams = n
	}
}
