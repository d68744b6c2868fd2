package models

// HealthCheckResponse shows the current health of the api.
// true means it is alive, false means it is not.
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
