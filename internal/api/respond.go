package api

import (
	"net/http"

	"marketplace-service/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError maps an error kind to an HTTP status and writes the error
// body. Every failure carries a machine-distinguishable kind and a
// human-readable message.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindInvalidRequest:
		status = http.StatusBadRequest
	case apperr.KindNotFound, apperr.KindProductsNotFound, apperr.KindStoreNotFound, apperr.KindUserNotFound:
		status = http.StatusNotFound
	case apperr.KindDuplicateOrderID:
		status = http.StatusConflict
	}

	body := gin.H{"kind": string(kind)}
	if status == http.StatusInternalServerError {
		// Storage faults are surfaced as a generic server error.
		body["error"] = "internal server error"
	} else {
		body["error"] = err.Error()
	}

	c.JSON(status, body)
}
