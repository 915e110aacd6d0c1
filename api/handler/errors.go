package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ecocal/models"
)

// respondError maps a ScrapeError anywhere in err's chain to the matching
// HTTP status and writes the JSON error envelope.
func respondError(c *gin.Context, err error, resp models.GatherResponse) {
	scrapeErr := models.AsScrapeError(err)

	resp.Success = false
	resp.Error = scrapeErr.ToDetail()
	if resp.Records == nil {
		resp.Records = []models.EventRecord{}
	}
	c.JSON(mapErrorToStatus(scrapeErr), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeTableNotFound:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeBusy:
		return http.StatusConflict // 409
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
