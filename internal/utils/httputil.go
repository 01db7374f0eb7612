package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Timing is one Server-Timing metric.
type Timing struct {
	Name     string
	Duration time.Duration
}

// AddServerTiming appends a Server-Timing header, e.g. "load;dur=1.2, union;dur=30.5".
func AddServerTiming(w http.ResponseWriter, timings ...Timing) {
	if len(timings) == 0 {
		return
	}
	parts := make([]string, 0, len(timings))
	for _, t := range timings {
		parts = append(parts, fmt.Sprintf("%s;dur=%.1f", t.Name, float64(t.Duration.Microseconds())/1000))
	}
	w.Header().Add("Server-Timing", strings.Join(parts, ", "))
}
