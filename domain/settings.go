package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

type RaceSettings struct {
	MatchFormat MatchFormat `json:"matchFormat" validate:"oneof=BEST_OF FIRST_TO"`
	SetFormat   SetFormat   `json:"setFormat" validate:"oneof=BEST_OF FIRST_TO AVERAGE_OF MEAN_OF FASTEST_OF"`
	NSets       int         `json:"nSets" validate:"gte=1,lte=99"`
	NSolves     int         `json:"nSolves" validate:"gte=1,lte=99"`
}

type TeamSettings struct {
	TeamsEnabled bool `json:"teamsEnabled"`
	MaxTeamSize  int  `json:"maxTeamSize" validate:"gte=0,lte=16"`
}

type Access struct {
	Visibility   Visibility `json:"visibility" validate:"oneof=PUBLIC PRIVATE"`
	PasswordHash *string    `json:"passwordHash,omitempty"`
}

type RoomSettings struct {
	RoomName     string       `json:"roomName" validate:"required,min=1,max=64"`
	RoomEvent    PuzzleEvent  `json:"roomEvent" validate:"required"`
	RoomFormat   RoomFormat   `json:"roomFormat" validate:"oneof=CASUAL RACING"`
	RaceSettings RaceSettings `json:"raceSettings"`
	TeamSettings TeamSettings `json:"teamSettings"`
	Access       Access       `json:"access"`
}

// DefaultSettings is a casual 3x3 public room.
func DefaultSettings(name string) RoomSettings {
	return RoomSettings{
		RoomName:   name,
		RoomEvent:  "333",
		RoomFormat: Casual,
		RaceSettings: RaceSettings{
			MatchFormat: MatchBestOf,
			SetFormat:   SetBestOf,
			NSets:       1,
			NSolves:     1,
		},
		Access: Access{Visibility: Public},
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator is shared by every package that validates domain input.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(raceSettingsValidation, RaceSettings{})
	})
	return validate
}

// An average drops a best and a worst time, so it needs at least three solves.
func raceSettingsValidation(sl validator.StructLevel) {
	race := sl.Current().Interface().(RaceSettings)
	if race.SetFormat == SetAverageOf && race.NSolves < 3 {
		sl.ReportError(race.NSolves, "NSolves", "nSolves", "min_average", "3")
	}
}

func (s RoomSettings) Validate() error {
	return Validator().Struct(s)
}

// IsProtected reports whether joining requires a password.
func (s RoomSettings) IsProtected() bool {
	return s.Access.PasswordHash != nil && *s.Access.PasswordHash != ""
}
