package server

import (
	"github.com/gorilla/mux"
)

// Router builds the HTTP route table. Document creation and stamped
// downloads require a bearer token; verification endpoints are public
// because they are hit by anyone scanning a seal.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/qr/{id}", s.handleQR).Methods("GET")
	r.HandleFunc("/verify/{id}", s.handleVerify).Methods("GET")
	r.HandleFunc("/verify-image/{id}", s.handleVerifyImage).Methods("POST")

	docs := r.PathPrefix("/documents").Subrouter()
	docs.Use(s.auth.Middleware)
	docs.HandleFunc("", s.handleCreateDocument).Methods("POST")
	docs.HandleFunc("/{id}/stamped", s.handleStamped).Methods("GET")

	return r
}
