//go:build wireinject
// +build wireinject

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
	"github.com/google/wire"

	"github.com/observabil/flowgate/internal/bootstrap"
	"github.com/observabil/flowgate/internal/conf"
	"github.com/observabil/flowgate/internal/handler"
	"github.com/observabil/flowgate/internal/repo"
	"github.com/observabil/flowgate/internal/service"
)

func initApp(cfg conf.AppConfig) (*bootstrap.App, error) {
	wire.Build(
		bootstrap.ProviderSet,
		repo.ProviderSet,
		service.ProviderSet,
		handler.ProviderSet,
	)
	return nil, nil
}
