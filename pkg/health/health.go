package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/philtems/colorwarm/pkg/mqtt"
	"github.com/philtems/colorwarm/pkg/redis"
)

// Probe reports whether a dependency is usable
type Probe func() error

// Checker provides the control API health endpoints
type Checker struct {
	display Probe
	mqtt    mqtt.Client
	redis   redis.Client
	logger  *slog.Logger
}

// NewChecker creates a new health checker. The display probe is required;
// the optional sink clients may be nil.
func NewChecker(display Probe, mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		display: display,
		mqtt:    mqttClient,
		redis:   redisClient,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Display string `json:"display"`
	Redis   string `json:"redis"`
	MQTT    string `json:"mqtt"`
}

// HandlerFunc returns 200 whenever the process is alive, without touching
// any dependency
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc reports every dependency. Only the display decides the
// overall status; sinks are optional and can only degrade it to "partial".
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Display: "ok",
			Redis:   "disabled",
			MQTT:    "disabled",
		}

		if h.display != nil {
			if err := h.display(); err != nil {
				services.Display = err.Error()
			}
		}

		if h.mqtt != nil {
			services.MQTT = "connected"
			if !h.mqtt.IsConnected() {
				services.MQTT = "disconnected"
			}
		}

		// Redis is not pinged here to keep the check fast
		if h.redis != nil {
			services.Redis = "configured"
		}

		status := "healthy"
		statusCode := http.StatusOK

		switch {
		case services.Display != "ok":
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		case services.MQTT == "disconnected":
			status = "partial"
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		})
	}
}

func (h *Checker) write(w http.ResponseWriter, code int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
