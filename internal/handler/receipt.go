package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amoghcc/coffee-shop-rewards/internal/ledger"
	"github.com/amoghcc/coffee-shop-rewards/internal/ocr"
	"github.com/amoghcc/coffee-shop-rewards/internal/util"

	"github.com/gin-gonic/gin"
)

// maxReceiptImageBytes caps uploads; receipt photos are small.
const maxReceiptImageBytes = 10 << 20

// ReceiptHandler runs the ingestion path: upload -> external recognition ->
// validation -> append. The external call and validation both finish before
// the store's per-user critical section is entered, so a hung recognition
// service can never hold up appends.
type ReceiptHandler struct {
	OCR       *ocr.Client
	Validator *ocr.Validator
	Store     *ledger.Store
	Timeout   time.Duration
}

func NewReceiptHandler(client *ocr.Client, validator *ocr.Validator, store *ledger.Store, timeout time.Duration) *ReceiptHandler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ReceiptHandler{
		OCR:       client,
		Validator: validator,
		Store:     store,
		Timeout:   timeout,
	}
}

// UploadReceipt accepts a multipart receipt image, has the recognition
// service guess {store, total}, and appends a trusted ocr transaction if
// the guess passes validation. Any failure appends nothing.
func (h *ReceiptHandler) UploadReceipt(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "no file uploaded")
		return
	}
	if fileHeader.Size > maxReceiptImageBytes {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unreadable file")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	result, err := h.OCR.Recognize(ctx, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, ocr.ErrUpstreamTimeout) || errors.Is(err, context.DeadlineExceeded) {
			util.Error(c, http.StatusGatewayTimeout, util.CodeUpstream, "recognition service timed out, please retry")
			return
		}
		util.Error(c, http.StatusBadGateway, util.CodeUpstream, "recognition service failed, please retry")
		return
	}

	cand, err := h.Validator.Validate(result)
	if err != nil {
		var verr *ocr.ValidationError
		if errors.As(err, &verr) {
			util.Error(c, http.StatusUnprocessableEntity, util.CodeValidation, verr.Reason)
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to validate receipt")
		return
	}

	record, err := h.Store.Append(c.Request.Context(), user.UID, cand)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save transaction")
		return
	}

	util.Success(c, util.Response{
		"recognized": gin.H{
			"store": result.Store,
			"total": result.Total,
		},
		"transaction": toTransactionResp(&record),
	})
}
