package jobs

import (
	"fmt"
	"log"

	"EcomInsights/internal/config"
	"EcomInsights/internal/dashboard"
	"EcomInsights/internal/logger"
	"EcomInsights/internal/orders"
	"EcomInsights/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

// CronService reloads the dataset export from disk on a schedule so a
// dashboard left open overnight picks up the next day's drop.
type CronService struct {
	config      map[string]interface{}
	store       *orders.Store
	cron        *cron.Cron
	datasetPath string
	schedule    string
}

func NewCronService(cfg map[string]interface{}, store *orders.Store) serviceiface.Service {
	s := &CronService{
		config:      cfg,
		store:       store,
		datasetPath: config.DefaultDatasetPath,
		schedule:    config.DefaultRefreshSchedule,
	}
	if cfg != nil {
		if v, ok := cfg["dataset_path"].(string); ok && v != "" {
			s.datasetPath = v
		}
		if v, ok := cfg["schedule"].(string); ok && v != "" {
			s.schedule = v
		}
	}
	return s
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	// Initial load. A missing file is not fatal: the dataset can still
	// arrive via upload.
	if err := s.reloadDataset(); err != nil {
		log.Printf("Cron service: initial dataset load skipped: %v", err)
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.reloadDataset(); err != nil {
			log.Printf("Cron service: scheduled dataset reload failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule dataset refresh: %v", err)
	}
	s.cron.Start()

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Cron service started — dataset refresh scheduled (%s)", s.schedule))
	}
	log.Printf("Cron service started — reloading %s on schedule %q", s.datasetPath, s.schedule)
	return nil
}

func (s *CronService) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("Cron service stopped.")
	return nil
}

func (s *CronService) reloadDataset() error {
	snap, err := orders.LoadCSVFile(s.datasetPath)
	if err != nil {
		return err
	}
	s.store.Swap(snap)
	dashboard.BroadcastDatasetRefreshed(snap.ID, snap.Source, len(snap.Lines))
	log.Printf("Dataset reloaded from %s: %d rows (snapshot %s)", s.datasetPath, len(snap.Lines), snap.ID)
	return nil
}
