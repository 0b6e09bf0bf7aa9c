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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/observabil/flowgate/internal/conf"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/pkg/database"
	"github.com/observabil/flowgate/pkg/log"
	"github.com/observabil/flowgate/pkg/version"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "flowgate",
		Short: "Access control and edit locking for collaborative flows",
	}
	root.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "config file path")

	root.AddCommand(serveCmd(), migrateCmd(), version.VersionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf := conf.NewConf(configFile)
			if _, err := log.NewLog(&appConf.Log); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			app, err := initApp(appConf)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			app.Run()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf := conf.NewConf(configFile)
			if _, err := log.NewLog(&appConf.Log); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			db, err := database.NewDatabase(appConf.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			err = db.AutoMigrate(
				&model.User{},
				&model.Project{},
				&model.ProjectMember{},
				&model.ResourcePermission{},
				&model.Flow{},
				&model.ProjectRequest{},
			)
			if err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
			log.Info("schema migrated")
			return nil
		},
	}
}
