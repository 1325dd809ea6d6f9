package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Avalon API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Avalon social deduction game. Game intents and events travel over the room websocket; this spec covers the REST surface.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Creates the user on first login and returns a bearer token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postLogin)

	// GET /api/rooms
	listRooms, _ := r.NewOperationContext(http.MethodGet, "/api/rooms")
	listRooms.SetSummary("List rooms")
	listRooms.AddRespStructure([]Room{}, openapi.WithHTTPStatus(http.StatusOK))
	listRooms.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listRooms)

	// POST /api/rooms
	createRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	createRoom.SetSummary("Create a room")
	createRoom.SetDescription("Creates a room with the caller as host and first member.")
	createRoom.AddReqStructure(CreateRoomRequest{})
	createRoom.AddRespStructure(Room{}, openapi.WithHTTPStatus(http.StatusCreated))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createRoom)

	// GET /api/rooms/{roomID}
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{roomID}")
	getRoom.SetSummary("Get a room")
	getRoom.SetDescription("Returns the room roster plus which members are currently connected.")
	getRoom.AddRespStructure(RoomDetailResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoom)

	// POST /api/rooms/{roomID}/join
	joinRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomID}/join")
	joinRoom.SetSummary("Join a room")
	joinRoom.AddRespStructure(Room{}, openapi.WithHTTPStatus(http.StatusOK))
	joinRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	joinRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(joinRoom)

	// POST /api/rooms/{roomID}/leave
	leaveRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomID}/leave")
	leaveRoom.SetSummary("Leave a room")
	leaveRoom.SetDescription("Removes the caller from the roster. The last player out deletes the room; a departing host hands off to the next member.")
	leaveRoom.AddRespStructure(Room{}, openapi.WithHTTPStatus(http.StatusOK))
	leaveRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(leaveRoom)

	// POST /api/rooms/{roomID}/ready
	readyRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{roomID}/ready")
	readyRoom.SetSummary("Toggle ready")
	readyRoom.AddRespStructure(Room{}, openapi.WithHTTPStatus(http.StatusOK))
	readyRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(readyRoom)

	// GET /api/ws/{roomID}
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/ws/{roomID}")
	getWS.SetSummary("Room websocket")
	getWS.SetDescription("Upgrades to a websocket carrying game intents in and game events out. Authenticates via the token query parameter.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	getWS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getWS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, err := json.Marshal(spec)

	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(data)
	}
}
