package swim

import (
	"context"
	"time"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/source/web"
	"github.com/hupe1980/pathway/store"
)

// Agent names (namespace keys).
const (
	DietName       = "diet"
	MeetPrepName   = "meet_prep"
	TimesName      = "times"
	TravelName     = "travel"
	RecruitingName = "recruiting"
	StatusName     = "status"
)

// PageFetcher retrieves program pages.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (web.Page, error)
}

// Deps are the collaborators shared by the swim agents. Every field is optional.
type Deps struct {
	Sink      store.Sink
	Pages     PageFetcher
	Standards map[string]float64 // event -> qualifying time in seconds
	Now       func() time.Time
	Logger    logging.Logger
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NoOpLogger{}
}

// Agents returns every swim agent wired to deps, in registry order.
func Agents(deps Deps) []core.Agent {
	return []core.Agent{
		NewDiet(),
		NewMeetPrep(deps),
		NewTimes(deps),
		NewTravel(),
		NewRecruiting(deps),
		NewStatus(deps),
	}
}
