package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email string `json:"email" validate:"required,email"`
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
	resParams.ReqData = reqData

	// normalize
	reqData.Email = strings.TrimSpace(strings.ToLower(reqData.Email))

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// check that the account exists
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"email": reqData.Email}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// create new verification code
	code, err := utils.NewVerificationCode(h.RedisCli, ctx, reqData.Email)
	if err != nil {
		if errors.Is(err, utils.ErrUnusedVerificationCode) {
			resParams.Code = http.StatusTooManyRequests
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	status, err := utils.SendVerificationCodeEmail(h.AWSSESCli, h.RedisCli, ctx, reqData.Email, code)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = status
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
