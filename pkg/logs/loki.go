package logs

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/grafana/loki-client-go/loki"
	promconfig "github.com/prometheus/common/config"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
)

const lokiPushPath = "/loki/api/v1/push"

// newLokiHandler returns a handler that batches records to Loki's push API.
func newLokiHandler(c config.LokiConfig, level slog.Level) (slog.Handler, func(), error) {
	endpoint := strings.TrimRight(c.Endpoint, "/")
	if endpoint == "" {
		return nil, nil, fmt.Errorf("loki endpoint is empty")
	}
	if !strings.HasSuffix(endpoint, lokiPushPath) {
		endpoint += lokiPushPath
	}

	lc, err := loki.NewDefaultConfig(endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("loki config: %w", err)
	}
	lc.TenantID = c.TenantID
	if c.Username != "" {
		lc.Client.BasicAuth = &promconfig.BasicAuth{
			Username: c.Username,
			Password: promconfig.Secret(c.Password),
		}
	}

	client, err := loki.New(lc)
	if err != nil {
		return nil, nil, fmt.Errorf("loki client: %w", err)
	}

	h := slogloki.Option{Level: level, Client: client}.NewLokiHandler()
	return h, client.Stop, nil
}
