package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// budgetShares splits a build budget across categories. GPU and CPU take
// the bulk, the rest covers the supporting parts.
var budgetShares = map[string]float64{
	models.ComponentGPU:     0.35,
	models.ComponentCPU:     0.22,
	models.ComponentMobo:    0.12,
	models.ComponentRAM:     0.10,
	models.ComponentStorage: 0.09,
	models.ComponentPSU:     0.07,
	models.ComponentCase:    0.05,
}

// PCBuild exported for testing purposes
type PCBuild struct {
	DB databases.PCComponentDatabase
}

// CreateComponentHandler adds a catalog entry (admin)
func (p PCBuild) CreateComponentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var comp models.PCComponent
	if err := json.NewDecoder(r.Body).Decode(&comp); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if comp.Name == "" || comp.PriceUSD <= 0 {
		config.ErrorStatus("name and a positive priceUsd are required", http.StatusBadRequest, w, nil)
		return
	}
	if _, ok := budgetShares[comp.Category]; !ok {
		config.ErrorStatus("unknown component category", http.StatusBadRequest, w, nil)
		return
	}
	comp.CreatedAt = time.Now()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := p.DB.InsertOne(ctx, comp); err != nil {
		config.ErrorStatus("failed to create component", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comp)
}

// ListComponentsHandler returns the catalog, optionally by category
func (p PCBuild) ListComponentsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	comps, err := p.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to list components", http.StatusInternalServerError, w, err)
		return
	}
	if comps == nil {
		comps = []models.PCComponent{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(comps)
}

// DeleteComponentHandler removes a catalog entry (admin)
func (p PCBuild) DeleteComponentHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	componentID := mux.Vars(r)["component_id"]
	oid, err := primitive.ObjectIDFromHex(componentID)
	if err != nil {
		config.ErrorStatus("invalid component id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := p.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete component", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// RecommendBuildHandler picks the best component per category within a
// budget. Each category gets its share of the budget; the best-scoring part
// that fits wins, and leftover money rolls into the next category.
func (p PCBuild) RecommendBuildHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	budget, err := strconv.ParseFloat(r.URL.Query().Get("budget"), 64)
	if err != nil || budget <= 0 {
		config.ErrorStatus("a positive budget is required", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	comps, err := p.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to load component catalog", http.StatusInternalServerError, w, err)
		return
	}

	build := RecommendBuild(budget, comps)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(build)
}

// categoryOrder fixes the allocation sequence so leftover budget flows from
// the big-ticket parts down to the case
var categoryOrder = []string{
	models.ComponentGPU,
	models.ComponentCPU,
	models.ComponentMobo,
	models.ComponentRAM,
	models.ComponentStorage,
	models.ComponentPSU,
	models.ComponentCase,
}

// RecommendBuild is the pure selection logic behind RecommendBuildHandler
func RecommendBuild(budget float64, catalog []models.PCComponent) models.PCBuild {
	byCategory := make(map[string][]models.PCComponent)
	for _, comp := range catalog {
		byCategory[comp.Category] = append(byCategory[comp.Category], comp)
	}
	for _, comps := range byCategory {
		sort.Slice(comps, func(i, j int) bool {
			if comps[i].Score != comps[j].Score {
				return comps[i].Score > comps[j].Score
			}
			return comps[i].PriceUSD < comps[j].PriceUSD
		})
	}

	build := models.PCBuild{Budget: budget}
	carryover := 0.0
	for _, category := range categoryOrder {
		allowance := budget*budgetShares[category] + carryover
		var picked *models.PCComponent
		for i := range byCategory[category] {
			if byCategory[category][i].PriceUSD <= allowance {
				picked = &byCategory[category][i]
				break
			}
		}
		if picked == nil {
			carryover = allowance
			continue
		}
		build.Components = append(build.Components, *picked)
		build.TotalUSD += picked.PriceUSD
		carryover = allowance - picked.PriceUSD
	}
	return build
}
