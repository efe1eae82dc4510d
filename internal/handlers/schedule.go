package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/repos"
)

type ScheduleHandler struct {
	scheduleRepo repos.ScheduleRepo
}

func NewScheduleHandler(scheduleRepo repos.ScheduleRepo) *ScheduleHandler {
	return &ScheduleHandler{scheduleRepo: scheduleRepo}
}

// List returns calendar entries between ?from= and ?to=, defaulting to the
// current month.
func (sh *ScheduleHandler) List(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	if d, err := parseDateParam(c, "from"); err != nil {
		RespondServiceError(c, err)
		return
	} else if d != nil {
		from = *d
	}
	if d, err := parseDateParam(c, "to"); err != nil {
		RespondServiceError(c, err)
		return
	} else if d != nil {
		to = *d
	}
	if to.Before(from) {
		RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: to precedes from", pkgerrors.ErrInvalidArgument))
		return
	}
	rows, err := sh.scheduleRepo.ListByDateRange(c.Request.Context(), nil, from, to)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"schedules": rows})
}
