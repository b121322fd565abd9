package http

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/middleware"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
)

func MapRemuxRoutes(remuxGroup *echo.Group, h remux.Handlers, mw *middleware.MiddlewareManager) {
	remuxGroup.POST("/upload/presign", h.GetPresignUpload(), mw.AuthJWTMiddleware())
	remuxGroup.POST("/upload/confirm", h.ConfirmUpload(), mw.AuthJWTMiddleware())
	remuxGroup.GET("/jobs/:job_id", h.GetJobByID(), mw.AuthJWTMiddleware())
	remuxGroup.GET("/jobs/:job_id/status", h.GetJobStatus(), mw.AuthJWTMiddleware())
}
