package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"course-middleware/auth"
	"course-middleware/helpers"
	"course-middleware/models"

	"github.com/gin-gonic/gin"
)

// GetUserFromBearer resolves the bearer token to an account and sets the
// gin response when it can't.
func (h *Handlers) GetUserFromBearer(c *gin.Context) (models.Account, bool) {
	token, ok := bearerToken(c)
	if !ok {
		helpers.JSONError(c, http.StatusUnauthorized, "Missing Authorization header")
		return models.Account{}, false
	}
	if token == "" {
		helpers.JSONError(c, http.StatusUnauthorized, helpers.Unauthorized)
		return models.Account{}, false
	}

	acct, err := h.Users.UserByJWT(token)
	if errors.Is(err, auth.ErrUnauthorized) {
		helpers.JSONError(c, http.StatusUnauthorized, helpers.Unauthorized)
		return models.Account{}, false
	}
	if err != nil {
		log.Printf("[%v] failed to resolve bearer token: %v", helpers.GetRequestID(c), err.Error())
		helpers.Simple500(c)
		return models.Account{}, false
	}
	return acct, true
}

func (h *Handlers) GetProgress(c *gin.Context) {
	acct, ok := h.GetUserFromBearer(c)
	if !ok {
		return
	}

	progress, err := h.Progress.GetProgress(c.Request.Context(), acct.ID)
	if err != nil {
		log.Printf("[%v] failed to get progress for user %v: %v", helpers.GetRequestID(c), acct.ID, err.Error())
		helpers.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *Handlers) PostProgress(c *gin.Context) {
	acct, ok := h.GetUserFromBearer(c)
	if !ok {
		return
	}

	update := models.ProgressUpdate{}
	err := c.ShouldBindJSON(&update)
	if err != nil {
		helpers.JSONError(c, http.StatusBadRequest, "invalid progress payload")
		return
	}
	if update.CompletedLessons == nil {
		update.CompletedLessons = []string{}
	}

	err = h.Progress.SetProgress(c.Request.Context(), acct.ID, update)
	if err != nil {
		log.Printf("[%v] failed to save progress for user %v: %v", helpers.GetRequestID(c), acct.ID, err.Error())
		helpers.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Access reports whether a week is locked for the caller. The token is
// optional; without a valid one the caller is treated as a free user.
func (h *Handlers) Access(c *gin.Context) {
	weekID, err := strconv.Atoi(c.Param("weekId"))
	if err != nil || weekID < 1 {
		helpers.JSONError(c, http.StatusBadRequest, "invalid week id")
		return
	}

	isPro := false
	token, _ := bearerToken(c)
	if token == "" {
		token = h.GetJWTFromGin(c)
	}
	if token != "" {
		acct, err := h.Users.UserByJWT(token)
		if err != nil && !errors.Is(err, auth.ErrUnauthorized) {
			log.Printf("[%v] access: failed to resolve token: %v", helpers.GetRequestID(c), err.Error())
		}
		isPro = err == nil && acct.IsPro()
	}

	c.JSON(http.StatusOK, models.AccessResponse{
		WeekID: weekID,
		Locked: h.Gate.Locked(weekID, isPro),
	})
}
