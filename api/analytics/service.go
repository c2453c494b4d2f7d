package analytics

import (
	"EcomInsights/internal/config"
	"EcomInsights/internal/orders"
	"EcomInsights/internal/serviceiface"
)

type AnalyticsService struct {
	config map[string]interface{}
	store  *orders.Store
}

func NewAnalyticsService(cfg map[string]interface{}, store *orders.Store) serviceiface.Service {
	return &AnalyticsService{config: cfg, store: store}
}

func (s *AnalyticsService) Name() string {
	return "analytics"
}

func (s *AnalyticsService) Start() error {
	port := config.DefaultAnalyticsPort
	if v, ok := s.config["port"].(int); ok && v > 0 {
		port = v
	}
	go StartAnalyticsService(port, s.store)
	return nil
}

func (s *AnalyticsService) Stop() error {
	return nil
}
