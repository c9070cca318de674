// Package migrations embeds SQL migration files.
package migrations

import "embed"

// IntegrationsFS contains the migrations of the integration store.
//
//go:embed integrations/*.sql
var IntegrationsFS embed.FS

// IntegrationsDir is the directory within IntegrationsFS where migrations live.
const IntegrationsDir = "integrations"
