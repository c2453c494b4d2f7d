package api

import (
	"EcomInsights/internal/config"
	"EcomInsights/internal/dashboard"
	"EcomInsights/internal/serviceiface"
)

type GatewayService struct {
	config map[string]interface{}
}

func NewGatewayService(cfg map[string]interface{}) serviceiface.Service {
	return &GatewayService{config: cfg}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	port := config.DefaultGatewayPort
	if v, ok := s.config["port"].(int); ok && v > 0 {
		port = v
	}
	analyticsPort := config.DefaultAnalyticsPort
	if v, ok := s.config["analytics_port"].(int); ok && v > 0 {
		analyticsPort = v
	}
	go StartGateway(port, analyticsPort)
	return nil
}

func (s *GatewayService) Stop() error {
	if sse := dashboard.GetSSEServer(); sse != nil {
		sse.Stop()
	}
	return nil
}
