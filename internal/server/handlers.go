package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/middleware"
	remuxHttp "github.com/amankumarsingh77/cloud-video-remuxer/internal/remux/delivery/http"
	remuxRepository "github.com/amankumarsingh77/cloud-video-remuxer/internal/remux/repository"
	remuxUsecase "github.com/amankumarsingh77/cloud-video-remuxer/internal/remux/usecase"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jobRepo := remuxRepository.NewJobRepo(s.db)
	awsRepo := remuxRepository.NewAwsRepository(s.s3Client, s.preSignClient)
	cacheRepo := remuxRepository.NewRemuxRedisRepo(s.redisClient)

	remuxUC := remuxUsecase.NewRemuxUseCase(s.cfg, jobRepo, awsRepo, cacheRepo, s.logger)
	remuxHandlers := remuxHttp.NewRemuxHandler(remuxUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	remuxGroup := v1.Group("/remux")

	remuxHttp.MapRemuxRoutes(remuxGroup, remuxHandlers, mw)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
