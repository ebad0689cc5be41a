// Package dashboard renders Grafana dashboards for the telemetry tables.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"cryotank-sim/internal/telemetry"
)

// DatasourceEnv names the Grafana datasource uid of the GreptimeDB instance.
const DatasourceEnv = "GREPTIMEDB_DATASOURCE_UID"

//go:embed templates/*.tmpl
var templates embed.FS

// Tables are the table names substituted into the dashboards.
type Tables struct {
	Tank     string
	Channel  string
	State    string
	Event    string
	Interval string
}

// DefaultTables returns the table names the writers use.
func DefaultTables() Tables {
	return Tables{
		Tank:     telemetry.TankTableName,
		Channel:  telemetry.ChannelTableName,
		State:    telemetry.VesselStateTableName,
		Event:    telemetry.CoolingEventTableName,
		Interval: "5s",
	}
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
func Render(outDir string) error {
	return RenderTables(outDir, DefaultTables())
}

// RenderTables renders the dashboards for the given table names.
func RenderTables(outDir string, tables Tables) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return err
		}
		var b strings.Builder
		if err := t.Execute(&b, tables); err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
