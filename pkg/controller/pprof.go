package controller

import (
	"net/http"
	"net/http/pprof"
)

// PprofPrefix is where Pprof expects to be mounted. net/http/pprof resolves
// named profiles relative to this exact path.
const PprofPrefix = "/debug/pprof/"

// Pprof returns a handler serving the runtime profiles under PprofPrefix.
func Pprof() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(PprofPrefix, pprof.Index)
	mux.HandleFunc(PprofPrefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(PprofPrefix+"profile", pprof.Profile)
	mux.HandleFunc(PprofPrefix+"symbol", pprof.Symbol)
	mux.HandleFunc(PprofPrefix+"trace", pprof.Trace)

	return mux
}
