// Package builtin registers the connector kinds that ship with permitmap.
package builtin

import (
	"github.com/agentstation/permitmap/internal/connectors/arcgis"
	"github.com/agentstation/permitmap/internal/connectors/scrape"
	"github.com/agentstation/permitmap/internal/connectors/socrata"
	"github.com/agentstation/permitmap/pkg/connectors"
	"github.com/agentstation/permitmap/pkg/registry"
)

// Factories returns a factory set with the socrata, arcgis and scrape kinds.
func Factories() *connectors.Factories {
	f := connectors.NewFactories()
	f.Register(registry.KindSocrata, socrata.New)
	f.Register(registry.KindArcGIS, arcgis.New)
	f.Register(registry.KindScrape, scrape.New)
	return f
}
