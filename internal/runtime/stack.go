// Package runtime assembles the application stack from configuration:
// datastore, model provider, object storage, metrics and notifier.
package runtime

import (
	"context"

	"github.com/semai/wildscan-go/internal/blobstore"
	"github.com/semai/wildscan-go/internal/catalog"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/notify"
	"github.com/semai/wildscan-go/internal/observability"
	"github.com/semai/wildscan-go/internal/scanner"
	"github.com/semai/wildscan-go/internal/taxonomy"
)

// Stack holds the wired application components.
type Stack struct {
	Settings *conf.Settings
	DS       datastore.Interface
	Provider *gemini.Client
	Blobs    blobstore.Gateway
	Metrics  *observability.Metrics
	Notifier *notify.Notifier
	Scanner  *scanner.Scanner
}

// Build wires the full pipeline from settings. The provider is optional
// (scans degrade without it); object storage falls back to an in-process
// gateway when GCS is disabled.
func Build(ctx context.Context, settings *conf.Settings) (*Stack, error) {
	ds := datastore.New(settings)
	if ds == nil {
		return nil, conf.ErrNoDatabaseConfigured
	}
	if err := ds.Open(); err != nil {
		return nil, err
	}
	if err := datastore.EnsureDefaultTaxonomy(ds); err != nil {
		_ = ds.Close()
		return nil, err
	}

	var provider *gemini.Client
	if settings.Provider.APIKey != "" {
		client, err := gemini.NewClient(gemini.ConfigFromSettings(settings))
		if err != nil {
			_ = ds.Close()
			return nil, err
		}
		provider = client
	} else {
		logging.Warn("No provider API key configured, scans will fail until one is set")
	}

	var blobs blobstore.Gateway
	if settings.Storage.GCS.Enabled {
		gateway, err := blobstore.NewGCSGateway(ctx, settings)
		if err != nil {
			if provider != nil {
				provider.Close()
			}
			_ = ds.Close()
			return nil, err
		}
		blobs = gateway
	} else {
		logging.Warn("Object storage disabled, scan photos are kept in memory only")
		blobs = blobstore.NewMemoryGateway()
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		if provider != nil {
			provider.Close()
		}
		_ = ds.Close()
		return nil, err
	}

	notifier := notify.NewNotifier(settings)
	if notifier != nil {
		if err := notifier.Connect(ctx); err != nil {
			// Discovery events are best effort; keep running without them.
			logging.Warn("MQTT connect failed, discovery events disabled", "error", err)
		}
	}

	classifier := taxonomy.NewClassifier(ds, classifierStage(provider))
	cat := catalog.New(ds, classifier)

	var identifier scanner.Identifier
	if provider != nil {
		identifier = provider
	} else {
		identifier = unavailableIdentifier{}
	}

	return &Stack{
		Settings: settings,
		DS:       ds,
		Provider: provider,
		Blobs:    blobs,
		Metrics:  metrics,
		Notifier: notifier,
		Scanner:  scanner.New(settings, ds, cat, identifier, blobs, metrics),
	}, nil
}

// Close releases all stack resources.
func (s *Stack) Close() {
	if s.Notifier != nil {
		s.Notifier.Close()
	}
	if s.Provider != nil {
		s.Provider.Close()
	}
	if s.Blobs != nil {
		_ = s.Blobs.Close()
	}
	if s.DS != nil {
		_ = s.DS.Close()
	}
}
