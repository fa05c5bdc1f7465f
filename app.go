package main

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/uosphere/idcard-verification/client"
	"github.com/uosphere/idcard-verification/client/tesseract"
	"github.com/uosphere/idcard-verification/config"
	"github.com/uosphere/idcard-verification/handler"
	"github.com/uosphere/idcard-verification/middleware"
	"github.com/uosphere/idcard-verification/service"
	"github.com/uosphere/idcard-verification/utils/idcard"
)

// newIDCardService wires the OCR chain, parser and validator from config.
func newIDCardService(cfg *config.Config, logger *slog.Logger) (*service.IDCardService, error) {
	policy := cfg.Card.ToPolicy()

	parser, err := idcard.NewParser(policy, logger.With("component", "idcard_parser"))
	if err != nil {
		return nil, err
	}
	validator := idcard.NewValidator(policy)

	var engines []client.Engine
	if cfg.OCR.PaddleURL != "" {
		paddle, err := client.NewPaddleClient(cfg.OCR.PaddleURL, cfg.OCR.PaddleTimeout, cfg.OCR.PaddleMaxRetries, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create PaddleOCR client: %w", err)
		}
		engines = append(engines, paddle)
	}
	engines = append(engines, tesseract.New(cfg.OCR.TesseractDataPath, cfg.OCR.Languages...))

	ocr := client.NewFallbackOCR(logger, engines...)
	logger.Info("OCR engines configured", "engines", ocr.Name())

	return service.NewIDCardService(ocr, service.NewPDFProcessor(), parser, validator, logger), nil
}

func newRouter(cfg *config.Config, svc service.IDCardVerifier, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", handler.Health)
	handler.NewIDCardHandler(svc, cfg.Server.MaxFileSize, logger).RegisterRoutes(router)

	return router
}
