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

package handler

import (
	"github.com/google/wire"
)

// ProviderSet provides the handler layer.
var ProviderSet = wire.NewSet(
	NewFlowHandler,
	NewPermissionHandler,
	NewProjectHandler,
	NewRequestHandler,
	NewWsHandler,
)
