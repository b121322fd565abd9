package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/utils"
)

type remuxHandler struct {
	remuxUC remux.UseCase
	logger  logger.Logger
}

func NewRemuxHandler(remuxUC remux.UseCase, logger logger.Logger) remux.Handlers {
	return &remuxHandler{
		remuxUC: remuxUC,
		logger:  logger,
	}
}

func (h *remuxHandler) GetPresignUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.PresignUploadInput{}
		if err := utils.ReadRequest(c, input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		presignURL, key, err := h.remuxUC.GetPresignUploadURL(c.Request().Context(), input)
		if err != nil {
			h.logger.Errorf("GetPresignUpload RequestID: %s, ERROR: %s", utils.GetRequestID(c), err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"presign_url": presignURL, "video_key": key})
	}
}

func (h *remuxHandler) ConfirmUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ConfirmUploadInput{}
		if err := utils.ReadRequest(c, input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.remuxUC.ConfirmUpload(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, remux.ErrObjectNotFound) {
				return c.JSON(http.StatusConflict, map[string]string{"error": "Upload not found in storage"})
			}
			h.logger.Errorf("ConfirmUpload RequestID: %s, ERROR: %s", utils.GetRequestID(c), err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, job)
	}
}

func (h *remuxHandler) GetJobByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		job, err := h.remuxUC.GetJob(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, remux.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *remuxHandler) GetJobStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		status, err := h.remuxUC.GetJobStatus(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, remux.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"job_id": jobID.String(), "remux_status": string(status)})
	}
}
