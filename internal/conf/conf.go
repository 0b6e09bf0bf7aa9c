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

package conf

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/observabil/flowgate/pkg/cache"
	"github.com/observabil/flowgate/pkg/database"
	"github.com/observabil/flowgate/pkg/http"
	"github.com/observabil/flowgate/pkg/log"
)

// Lock configures the optional lock TTL sweeper. Locks never expire when
// TTLMinutes is zero.
type Lock struct {
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	SweepCron  string `mapstructure:"sweep_cron"`
}

// Webhook configures the project-request notification endpoint. Empty URL
// disables notification.
type Webhook struct {
	URL string `mapstructure:"url"`
}

type AppConfig struct {
	Log      log.Conf
	Http     http.Http
	Database database.Conf
	Redis    cache.Redis
	Lock     Lock
	Webhook  Webhook
}

var (
	cfg  AppConfig
	once sync.Once
)

func NewConf(confFile string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load conf file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile reads the TOML config and re-parses it on change.
func LoadConfigFile(confFile string) (AppConfig, error) {
	config := viper.New()
	config.SetConfigFile(confFile)
	config.AddConfigPath("./conf.d")
	config.SetConfigName("config")
	config.SetConfigType("toml")
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("configuration changed, re-parsing: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorf("failed to unmarshal configuration file: %v", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}

	if cfg.Log.Output == "" {
		cfg.Log = *log.SetDefaults()
	}
	if err := cfg.Log.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
