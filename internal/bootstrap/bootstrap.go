// Copyright 2025 Flowgate Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bootstrap assembles the application: configuration, logging,
// redis, database, services, router, and the optional lock sweeper.
package bootstrap

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/observabil/flowgate/internal/conf"
	"github.com/observabil/flowgate/internal/router"
	"github.com/observabil/flowgate/internal/service"
	"github.com/observabil/flowgate/pkg/cache"
	"github.com/observabil/flowgate/pkg/database"
	"github.com/observabil/flowgate/pkg/http"
	"github.com/observabil/flowgate/pkg/log"
)

// App is the assembled application.
type App struct {
	Conf        conf.AppConfig
	Router      *router.Router
	LockService *service.LockService

	cron *cron.Cron
}

func NewApp(cfg conf.AppConfig, rt *router.Router, lockService *service.LockService) *App {
	return &App{Conf: cfg, Router: rt, LockService: lockService}
}

// Run starts the optional lock sweeper and serves HTTP until shutdown.
func (a *App) Run() {
	a.startSweeper()
	http.Server(a.Conf.Http, a.Router.Router())
	a.stopSweeper()
}

// startSweeper schedules the lock TTL sweep when a TTL is configured.
// Locks never expire otherwise.
func (a *App) startSweeper() {
	ttl := time.Duration(a.Conf.Lock.TTLMinutes) * time.Minute
	if ttl <= 0 {
		return
	}
	spec := a.Conf.Lock.SweepCron
	if spec == "" {
		spec = "@every 1m"
	}

	a.cron = cron.New()
	_, err := a.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := a.LockService.SweepExpired(ctx, ttl); err != nil {
			log.Errorf("lock sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Errorf("schedule lock sweep %q failed: %v", spec, err)
		return
	}
	a.cron.Start()
	log.Infof("lock sweeper scheduled %q with ttl %s", spec, ttl)
}

func (a *App) stopSweeper() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
}

// ProvideDatabase opens the mysql connection.
func ProvideDatabase(cfg conf.AppConfig) (database.IDatabase, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	return database.NewGormDB(db), nil
}

// ProvideRedis connects the redis client.
func ProvideRedis(cfg conf.AppConfig) (*redis.Client, error) {
	return cache.NewRedis(cfg.Redis)
}

// ProvideCache builds the tiered capability cache store: fastcache in
// front of redis.
func ProvideCache(client *redis.Client) cache.ICache {
	return cache.NewTieredCache(cache.NewLocalCache(0), cache.NewRedisCache(client), 0.5)
}

// ProvideHttpConf exposes the http section for the router.
func ProvideHttpConf(cfg conf.AppConfig) *http.Http {
	return &cfg.Http
}

// ProvideWebhook exposes the webhook section for the request service.
func ProvideWebhook(cfg conf.AppConfig) conf.Webhook {
	return cfg.Webhook
}

// ProviderSet provides the application infrastructure.
var ProviderSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedis,
	ProvideCache,
	ProvideHttpConf,
	ProvideWebhook,
	router.NewRouter,
	NewApp,
)
