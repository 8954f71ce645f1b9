// Package app wires the services together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"

	"linkscout/internal/analysis"
	"linkscout/internal/config"
	"linkscout/internal/httpapi"
	"linkscout/internal/notify"
	"linkscout/internal/report"
	"linkscout/internal/scheduler"
	"linkscout/internal/store"
	"linkscout/internal/youtube"
	logx "linkscout/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store store.Store
	sched *scheduler.Scheduler
	api   *httpapi.Service

	wg sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(cfg.Logx())
	cfgMgr.SetLogger(log)

	st, err := store.Open(cfg.StoreConfig(), log)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	analyzer := analysis.NewAnalyzer(youtube.New(), log)
	reports := report.NewWriter(cfg.Reports.Dir)

	ncfg := cfg.NotifyConfig()
	channels := []analysis.Notifier{notify.NewEmailNotifier(ncfg.Email)}
	if ncfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(ncfg.Telegram)
		if err != nil {
			// Telegram is a secondary channel; a broken token should not
			// keep the service down.
			log.Warn("telegram notifier disabled", logx.Err(err))
		} else {
			channels = append(channels, tg)
		}
	}
	notifier := notify.NewService(log, channels...)

	runner := analysis.NewRunner(st, analyzer, reports, notifier, log)
	sched := scheduler.New(runner.Run, log)
	api := httpapi.New(cfg.HTTPAPI(), st, sched, log)

	return &App{
		cfgMgr: cfgMgr,
		logSvc: logSvc,
		log:    log,
		store:  st,
		sched:  sched,
		api:    api,
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	// Every persisted active schedule gets its trigger back before the
	// first request can arrive.
	if err := a.sched.Repopulate(ctx, a.store); err != nil {
		return err
	}
	a.sched.Start(ctx)

	if err := a.api.Start(ctx); err != nil {
		return err
	}

	// Config file watch: logging changes apply without restart. Other
	// sections require one; they are wired at construction.
	sub := a.cfgMgr.Subscribe(4)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(ctx)
	}()
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logSvc.Apply(cfg.Logx())
				a.log.Info("logging config applied")
			}
		}
	}()

	a.log.Info("linkscout started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if err := a.api.Stop(ctx); err != nil {
		a.log.Warn("http api shutdown failed", logx.Err(err))
	}
	a.sched.Stop(ctx)
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}
	a.log.Info("linkscout stopped")
	return a.logSvc.Close()
}
