package http

import (
	"net/http"
	"strconv"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// deadLettersHandler lists undelivered events that exhausted their retry
// budget, for operator intervention.
func deadLettersHandler(outboxRepo repository.OutboxRepository, maxAttempts int) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 100
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}

		evs, err := outboxRepo.DeadLetters(c.Request().Context(), maxAttempts, limit)
		if err != nil {
			log.Errorf("dead letters query failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		results := make([]map[string]any, 0, len(evs))
		for _, ev := range evs {
			results = append(results, deadLetterJSON(ev))
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(results),
			"results": results,
		})
	}
}

func deadLetterJSON(ev model.OutboxEvent) map[string]any {
	out := map[string]any{
		"id":         ev.ID,
		"event_type": ev.EventType,
		"attempts":   ev.Attempts,
		"created_at": ev.CreatedAt,
	}
	if ev.AggregateID != nil {
		out["aggregate_id"] = *ev.AggregateID
	}
	if ev.LastError != nil {
		out["last_error"] = *ev.LastError
	}
	return out
}
