package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/truthlens/truthlens-api/api/handlers"
	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func TestRecommendBuild_PicksBestScoreWithinShare(t *testing.T) {
	catalog := []models.PCComponent{
		{Category: models.ComponentGPU, Name: "GPU budget", PriceUSD: 300, Score: 60},
		{Category: models.ComponentGPU, Name: "GPU strong", PriceUSD: 340, Score: 85},
		{Category: models.ComponentGPU, Name: "GPU flagship", PriceUSD: 900, Score: 99},
	}

	// 35% of 1000 gives the GPU a 350 allowance, so the flagship is out
	build := handlers.RecommendBuild(1000, catalog)

	if assert.Len(t, build.Components, 1) {
		assert.Equal(t, "GPU strong", build.Components[0].Name)
	}
	assert.Equal(t, 340.0, build.TotalUSD)
}

func TestRecommendBuild_CarryoverRollsForward(t *testing.T) {
	catalog := []models.PCComponent{
		{Category: models.ComponentGPU, Name: "GPU cheap", PriceUSD: 100, Score: 50},
		// 22% of 1000 is 220; only reachable with the GPU's leftover 250
		{Category: models.ComponentCPU, Name: "CPU strong", PriceUSD: 400, Score: 90},
	}

	build := handlers.RecommendBuild(1000, catalog)

	names := make([]string, 0, len(build.Components))
	for _, c := range build.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"GPU cheap", "CPU strong"}, names)
	assert.Equal(t, 500.0, build.TotalUSD)
}

func TestRecommendBuild_TieBreaksOnPrice(t *testing.T) {
	catalog := []models.PCComponent{
		{Category: models.ComponentRAM, Name: "RAM pricey", PriceUSD: 90, Score: 70},
		{Category: models.ComponentRAM, Name: "RAM value", PriceUSD: 60, Score: 70},
	}

	build := handlers.RecommendBuild(1000, catalog)

	if assert.Len(t, build.Components, 1) {
		assert.Equal(t, "RAM value", build.Components[0].Name)
	}
}

func TestRecommendBuild_EmptyCatalog(t *testing.T) {
	build := handlers.RecommendBuild(1500, nil)

	assert.Empty(t, build.Components)
	assert.Zero(t, build.TotalUSD)
	assert.Equal(t, 1500.0, build.Budget)
}

func TestRecommendBuildHandler_RequiresBudget(t *testing.T) {
	h := handlers.PCBuild{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pc-builds/recommend", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.RecommendBuildHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendBuildHandler_Success(t *testing.T) {
	compDB := &mocks.PCComponentDatabase{}
	compDB.On("Find", mock.Anything, bson.M{}).Return([]models.PCComponent{
		{Category: models.ComponentGPU, Name: "GPU strong", PriceUSD: 340, Score: 85},
	}, nil)

	h := handlers.PCBuild{DB: compDB}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pc-builds/recommend?budget=1000", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.RecommendBuildHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var build models.PCBuild
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &build))
	assert.Equal(t, 1000.0, build.Budget)
	assert.Len(t, build.Components, 1)
}

func TestCreateComponent_UnknownCategory(t *testing.T) {
	h := handlers.PCBuild{}

	body, _ := json.Marshal(map[string]interface{}{
		"category": "toaster",
		"name":     "Toast 9000",
		"priceUsd": 49.99,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/pc-builds/components", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.CreateComponentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
