package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{Message: message},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}

// SendFailure mapea un error de dominio al código HTTP que le corresponde.
// El mapeo Kind→status vive solo aquí, en la frontera.
func SendFailure(c *gin.Context, err error) {
	kind := sharedDomain.KindOf(err)

	var status int
	switch kind {
	case sharedDomain.ValidationFailed:
		status = http.StatusBadRequest
	case sharedDomain.NotFound:
		status = http.StatusNotFound
	case sharedDomain.Conflict, sharedDomain.AlreadyPaid, sharedDomain.AlreadyCancelled, sharedDomain.OutOfStock:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"error": ErrorResponse{Kind: string(kind), Message: err.Error()},
	})
}
