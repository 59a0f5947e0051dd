package middleware

import (
	"net/http"
	"strings"

	"github.com/brightsmile-ai/receptionist/internal/tenancy"
)

// ClinicResolver scopes webhook requests to a clinic. Vendors cannot send
// custom headers per call, so the clinic can also ride on a query parameter
// baked into the webhook URL. Header wins over query; an unresolved clinic
// is left to the caller's default.
func ClinicResolver() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clinicID := strings.TrimSpace(r.Header.Get("X-Clinic-Id"))
			if clinicID == "" {
				clinicID = strings.TrimSpace(r.URL.Query().Get("clinic_id"))
			}
			if clinicID != "" {
				r = r.WithContext(tenancy.WithClinicID(r.Context(), clinicID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
