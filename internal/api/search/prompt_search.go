package search

import (
	"context"
	"encoding/json"
	"net/http"

	"userfinderapi/internal/api"
)

func (h *Handler) PromptSearch(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Query string `json:"query" validate:"required,max=2000"`
	}

	// validate request body
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	h.GateAction(w, r, reqData, func(ctx context.Context) (any, error) {
		return h.AICli.FindLeads(ctx, reqData.Query)
	})

}
