package middleware

import (
	"html"
	"net/http"
)

// IsHTMXRequest checks if the request is from HTMX
func IsHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// HXRedirect tells HTMX to perform a full page navigation to url
func HXRedirect(w http.ResponseWriter, url string) {
	w.Header().Set("HX-Redirect", url)
	w.WriteHeader(http.StatusOK)
}

// ErrorFragment renders message as the alert fragment HTMX swaps into the page.
func ErrorFragment(message string) string {
	return `<div class="bg-red-50 border border-red-200 text-red-800 p-4 rounded-lg" role="alert">
	<p class="text-sm">` + html.EscapeString(message) + `</p>
</div>`
}
