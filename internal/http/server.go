package httpx

import "net/http"

// NewMux builds the decision API handler with logging, metrics and CORS
// middleware applied.
func NewMux(e Env) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", e.root)
	mux.HandleFunc("/healthz", e.Healthz)
	mux.HandleFunc("/readyz", e.Readyz)
	mux.HandleFunc("/decide", e.Decide)

	return RequestLogger(e.Log)(MetricsMiddleware(e.Metrics)(cors(mux)))
}

// root serves the liveness payload on exactly "/" and 404s everything the
// mux would otherwise swallow.
func (e Env) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	e.Healthz(w, r)
}
