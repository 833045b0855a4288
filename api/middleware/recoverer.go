package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/samcart-relay/api/responses"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
)

func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					err := fmt.Errorf("panic: %v", rec)
					ctx := logg.WithFields(r.Context(), map[string]any{"panic": fmt.Sprint(rec)})
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
