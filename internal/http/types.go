package http

import (
	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/service"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version,omitempty"`
	Classifier service.Status `json:"classifier"`
}

// LearnRequest is the request body for POST /api/v1/learn.
type LearnRequest struct {
	Label string  `json:"label"`
	SDR   sdr.SDR `json:"sdr"`
}

// LearnResponse is the response body for POST /api/v1/learn.
type LearnResponse struct {
	Label  string `json:"label"`
	Stored int    `json:"stored"`
}

// PredictRequest is the request body for POST /api/v1/predict. HowMany
// defaults to 1.
type PredictRequest struct {
	SDR     sdr.SDR `json:"sdr"`
	HowMany *int    `json:"how_many,omitempty"`
}

// PredictResponse is the response body for POST /api/v1/predict.
type PredictResponse struct {
	Results []classifier.Result[string] `json:"results"`
}

// ObjectsLearnRequest is the request body for POST /api/v1/objects/learn.
// Whole routes the samples to the validation pool.
type ObjectsLearnRequest struct {
	Samples []spatial.Sample[string] `json:"samples"`
	Whole   bool                     `json:"whole,omitempty"`
}

// ObjectsLearnResponse is the response body for POST /api/v1/objects/learn.
type ObjectsLearnResponse struct {
	Learned      int `json:"learned"`
	TrainingPool int `json:"training_pool"`
	WholePool    int `json:"whole_pool"`
}

// ObjectsPredictRequest is the request body for POST /api/v1/objects/predict.
type ObjectsPredictRequest struct {
	Samples         []spatial.Sample[string] `json:"samples"`
	HowManyFeatures int                      `json:"how_many_features"`
}

// ObjectsPredictResponse is the response body for POST
// /api/v1/objects/predict. Winner is this round's result, the last entry of
// Winners.
type ObjectsPredictResponse struct {
	Winner  spatial.Sample[string]   `json:"winner"`
	Winners []spatial.Sample[string] `json:"winners"`
}

// ValidateRequest is the request body for POST /api/v1/objects/validate.
type ValidateRequest struct {
	SDR     sdr.SDR `json:"sdr"`
	HowMany *int    `json:"how_many,omitempty"`
}

// ValidateResponse is the response body for POST /api/v1/objects/validate.
type ValidateResponse struct {
	Labels []string `json:"labels"`
}

// HistoryResponse is the response body for GET
// /api/v1/labels/:label/history.
type HistoryResponse struct {
	Label   string    `json:"label"`
	History []sdr.SDR `json:"history"`
}

// ResetResponse is the response body for POST /api/v1/reset.
type ResetResponse struct {
	Status string `json:"status"`
}
