package coordinator

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kasca/coordinator/pkg/network/httpx"
)

const greeting = "Hello from kasca coordinator! Go to https://kasca.dulapahv.dev to use the app :D"

// Handler returns all the HTTP routes of the coordinator.
func (h *Hub) Handler() http.Handler {
	mux := httpx.NewServeMux("")
	mux.HandleFunc("/", h.index)
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/ws", h.handleWebsocketUserConnection)
	return mux
}

func (h *Hub) index(w http.ResponseWriter, r *http.Request) {
	// return 404 on unknown
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", h.origins.CorsOrigin(r.Header.Get("Origin")))
	w.Header().Set("Access-Control-Allow-Methods", "GET")
	w.Header().Add("Vary", "Origin")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"message": greeting})
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Members     int    `json:"members"`
	Connections int    `json:"connections"`
}

func (h *Hub) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, healthResponse{
		Status:      "ok",
		Rooms:       h.rooms.Len(),
		Members:     h.users.Members(),
		Connections: h.users.Connections(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
