package middleware

import (
	"net/http"

	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/httputil"
)

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	httputil.WriteError(w, err)
}
