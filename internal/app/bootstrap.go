package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"toolgate/internal/adapter"
	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/compliance"
	"toolgate/internal/events"
	"toolgate/internal/gateway"
	"toolgate/internal/httpclient"
	"toolgate/internal/metatools"
	"toolgate/internal/operation"
	"toolgate/internal/vendors"
	"toolgate/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 15 * time.Second

// Application holds everything Bootstrap wired together.
type Application struct {
	cfg      Config
	version  string
	bus      *events.Bus
	adapters *adapter.Registry
	proxy    *ServiceProxy
	audit    *compliance.AuditLog
	fields   *compliance.FieldLists
	metrics  *gateway.Metrics
	mcp      *gateway.MCPServer
	server   *gateway.Server

	metricsSub *events.Subscription
	fieldsDone chan struct{}
}

// Bootstrap loads configuration and the service catalog, constructs every
// registry, registers the api handlers, and prepares the HTTP+MCP server.
// Nothing listens until Run.
func Bootstrap(ctx context.Context, cfg Config, version string) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	out := io.Writer(os.Stdout)
	if cfg.LogOutput != nil {
		out = cfg.LogOutput
	}
	logging.Init(level, out, false)

	bus := events.NewBus()

	loader := catalog.NewLoader(filepath.Dir(cfg.CatalogPath))
	descriptors, err := loader.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load service catalog: %w", err)
	}
	logging.Info("Bootstrap", "Loaded %d services from %s", len(descriptors), cfg.CatalogPath)

	complianceMgr, audit, fields, err := buildCompliance(cfg, descriptors, bus)
	if err != nil {
		return nil, err
	}

	adapters := adapter.NewRegistry()
	proxy := NewServiceProxy()
	if err := registerServices(ctx, cfg, descriptors, adapters, proxy, bus); err != nil {
		return nil, err
	}

	operations := operation.NewRegistry(adapters)
	if err := operations.Reindex(ctx); err != nil {
		return nil, fmt.Errorf("failed to build the operation index: %w", err)
	}

	vendorRegistry := vendors.NewRegistry(adapters)

	api.RegisterAdapterRegistry(adapters)
	api.RegisterOperationRegistry(operations)
	api.RegisterCompliance(complianceMgr)
	api.RegisterVendorRegistry(vendorRegistry)
	api.RegisterServiceProxy(proxy)
	metatools.NewAdapter().Register()

	metrics := gateway.NewMetrics()
	metricsSub := bus.Subscribe(0)
	go metrics.Observe(metricsSub)

	mcp := gateway.NewMCPServer(version, api.GetToolProvider())
	router := gateway.NewRouter(gateway.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow(),
		Version:        version,
	}, metrics, mcp.Handler())

	app := &Application{
		cfg:        cfg,
		version:    version,
		bus:        bus,
		adapters:   adapters,
		proxy:      proxy,
		audit:      audit,
		fields:     fields,
		metrics:    metrics,
		mcp:        mcp,
		server:     gateway.NewServer(cfg.Port, router),
		metricsSub: metricsSub,
		fieldsDone: make(chan struct{}),
	}

	if cfg.ComplianceFieldsPath != "" {
		go func() {
			if err := fields.Watch(app.fieldsDone); err != nil {
				logging.Error("Bootstrap", err, "Field list watcher stopped")
			}
		}()
	}
	return app, nil
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	// Best effort; a no-op outside systemd.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("Bootstrap", "sd_notify not available: %v", err)
	}

	select {
	case err := <-errCh:
		a.cleanup()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	return err
}

// ServeStdio serves only the MCP meta-tools over stdin/stdout. The HTTP
// surface stays down; logs must already be routed away from stdout.
func (a *Application) ServeStdio(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.mcp.ServeStdio()
	}()

	select {
	case err := <-errCh:
		a.cleanup()
		return err
	case <-ctx.Done():
		a.cleanup()
		return nil
	}
}

func (a *Application) cleanup() {
	close(a.fieldsDone)
	a.metricsSub.Close()
	if err := a.audit.Close(); err != nil {
		logging.Error("Bootstrap", err, "Failed to close the audit log")
	}
}

// buildCompliance wires the field lists, crypto, audit trail, and manager.
// Encryption and pseudonymization keys are required only when a loaded
// service enables the regulation that needs them.
func buildCompliance(cfg Config, descriptors []catalog.ServiceDescriptor, bus *events.Bus) (*compliance.Manager, *compliance.AuditLog, *compliance.FieldLists, error) {
	fields, err := compliance.LoadFieldLists(cfg.ComplianceFieldsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load compliance field lists: %w", err)
	}

	needsPCI, needsGDPR := false, false
	for _, desc := range descriptors {
		needsPCI = needsPCI || desc.Compliance.PCI
		needsGDPR = needsGDPR || desc.Compliance.GDPR
	}

	var enc *compliance.Encryptor
	if needsPCI {
		enc, err = compliance.NewEncryptor(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ENCRYPTION_KEY is required when a service enables PCI: %w", err)
		}
	}

	var pseudo *compliance.Pseudonymizer
	if needsGDPR {
		pseudo, err = compliance.NewPseudonymizer(cfg.PseudonymSalt)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("PSEUDONYM_SALT is required when a service enables GDPR: %w", err)
		}
	}

	sink, err := compliance.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open the audit sink: %w", err)
	}
	audit := compliance.NewAuditLog(sink, bus)

	return compliance.NewManager(descriptors, fields, enc, pseudo, audit, bus), audit, fields, nil
}

// registerServices builds one adapter and one outbound client per
// descriptor. Descriptors flagged mock in metadata register a mock adapter
// and no client.
func registerServices(ctx context.Context, cfg Config, descriptors []catalog.ServiceDescriptor, adapters *adapter.Registry, proxy *ServiceProxy, bus *events.Bus) error {
	for _, desc := range descriptors {
		if isMock(desc) {
			if err := adapters.RegisterMock(ctx, adapter.MockConfig{
				ID:        desc.Name,
				Name:      desc.Name,
				Category:  desc.Category(),
				AuthType:  string(desc.Authentication.Type),
				ToolCount: mockToolCount(desc),
			}); err != nil {
				return fmt.Errorf("failed to register mock adapter %s: %w", desc.Name, err)
			}
			continue
		}

		// Descriptors without a refresh endpoint fall back to the delegated
		// identity service.
		if desc.Authentication.Type == catalog.AuthBearer && desc.Authentication.RefreshURL == "" {
			desc.Authentication.RefreshURL = cfg.AuthGatewayURL
		}

		client, err := httpclient.New(httpclient.ConfigFromDescriptor(desc), bus)
		if err != nil {
			logging.Error("Bootstrap", err, "Skipping service %s: client construction failed", desc.Name)
			continue
		}
		client.BindEndpoints(desc.Endpoints)

		if err := adapters.Register(ctx, adapter.NewHTTP(desc, client)); err != nil {
			return fmt.Errorf("failed to register adapter %s: %w", desc.Name, err)
		}
		proxy.AddService(desc, client)

		if wantsWebhooks(desc) {
			proxy.RegisterWebhook(desc.Name, proxy.inboundWebhook(desc.Name))
		}
	}
	return nil
}

func wantsWebhooks(desc catalog.ServiceDescriptor) bool {
	if desc.Metadata == nil {
		return false
	}
	enabled, _ := desc.Metadata["webhooks"].(bool)
	return enabled
}

func isMock(desc catalog.ServiceDescriptor) bool {
	if desc.Metadata == nil {
		return false
	}
	mock, _ := desc.Metadata["mock"].(bool)
	return mock
}

func mockToolCount(desc catalog.ServiceDescriptor) int {
	if n, ok := desc.Metadata["toolCount"].(float64); ok && n > 0 {
		return int(n)
	}
	return 3
}
