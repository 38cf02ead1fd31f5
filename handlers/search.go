package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"umrahcheck/apperrors"
	"umrahcheck/planner"
)

func (h *Handler) Search(c *gin.Context) {
	var req planner.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	result, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BudgetAnalysisRequest accepts either the legacy "min-max" string or the
// structured bounds.
type BudgetAnalysisRequest struct {
	Budget    string `json:"budget"`
	BudgetMin int    `json:"budget_min"`
	BudgetMax int    `json:"budget_max"`
	Persons   int    `json:"persons"`
}

type BudgetAnalysisResponse struct {
	Success            bool                     `json:"success"`
	Budget             planner.BudgetRange      `json:"budget"`
	BudgetPerPerson    int                      `json:"budget_per_person"`
	Allocation         planner.BudgetAllocation `json:"allocation"`
	AllocationStrategy string                   `json:"allocation_strategy"`
}

func (h *Handler) BudgetAnalysis(c *gin.Context) {
	var req BudgetAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewInvalidInput("invalid request body: "+err.Error()))
		return
	}

	budget := planner.BudgetRange{Min: req.BudgetMin, Max: req.BudgetMax}
	if req.Budget != "" {
		parsed, err := planner.ParseBudgetRange(req.Budget)
		if err != nil {
			writeError(c, err)
			return
		}
		budget = parsed
	} else if budget.Min <= 0 || budget.Max < budget.Min {
		writeError(c, apperrors.NewInvalidInput("budget_min and budget_max must be positive with min <= max"))
		return
	}
	if req.Persons < 1 || req.Persons > planner.MaxPersons {
		writeError(c, apperrors.NewInvalidInputf("persons must be between 1 and %d", planner.MaxPersons))
		return
	}

	avg := budget.Average()
	alloc, err := planner.Allocate(float64(avg), req.Persons)
	if err != nil {
		writeError(c, err)
		return
	}

	strategy := fmt.Sprintf("%d%% flights, %d%% hotels, %d%% reserve",
		alloc.FlightPercent, alloc.HotelPercent, alloc.ContingencyPercent)

	c.JSON(http.StatusOK, BudgetAnalysisResponse{
		Success:            true,
		Budget:             budget,
		BudgetPerPerson:    avg,
		Allocation:         alloc,
		AllocationStrategy: strategy,
	})
}
