package server

import "net/http"

// Routes assembles the ServeMux for the chat service: the WebSocket
// endpoint and the companion read endpoints.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{user_id}", s.handleSocket)
	mux.HandleFunc("GET /users/online", s.handleOnline)
	mux.HandleFunc("GET /messages/recent", s.handleRecent)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}
