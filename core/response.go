package core

import "net/http"

// Response is anything that can render itself to an HTTP response writer.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes the response, falling back to a plain 500 if rendering
// itself fails.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
