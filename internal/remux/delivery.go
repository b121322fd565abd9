package remux

import "github.com/labstack/echo/v4"

type Handlers interface {
	GetPresignUpload() echo.HandlerFunc
	ConfirmUpload() echo.HandlerFunc
	GetJobByID() echo.HandlerFunc
	GetJobStatus() echo.HandlerFunc
}
