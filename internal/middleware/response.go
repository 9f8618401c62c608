package middleware

import (
	"net/http"

	"github.com/classroom-assistant/classroom-go/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
