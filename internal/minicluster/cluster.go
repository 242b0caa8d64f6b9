package minicluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowmatic/jobenv/internal/fileutil"
	"github.com/flowmatic/jobenv/internal/jobstore"
	"github.com/flowmatic/jobenv/internal/waitutil"
)

// readyPollInterval is the interval for coordinator readiness probes during
// Start. The listener is already bound when polling begins, so the first
// probe almost always succeeds.
const readyPollInterval = 10 * time.Millisecond

// dispatchQueueFactor sizes the dispatch queue as a multiple of the total
// slot count, giving submitters headroom before the coordinator sheds load.
const dispatchQueueFactor = 4

// Cluster is a running in-process job cluster.
//
// Lifecycle: New → Start → (Submit/Status via the HTTP surface) → CloseAsync.
// Start and CloseAsync are not safe for concurrent use with each other; the
// owning harness serializes them. The HTTP surface and the dispatch workers
// are concurrent internally.
type Cluster struct {
	cfg Config
	log *slog.Logger

	store       *jobstore.Store
	listener    net.Listener
	webListener net.Listener
	server      *http.Server
	webServer   *http.Server

	host    string
	port    int
	webPort int

	queue     chan string
	runCancel context.CancelFunc
	workers   sync.WaitGroup

	// ready gates the /readyz probe until dispatch workers are running.
	ready atomic.Bool
	// closed is closed at the start of teardown; readiness polls and the
	// submit handler observe it.
	closed    chan struct{}
	closeOnce sync.Once
	closeCh   chan error

	started bool
}

// New creates a Cluster from cfg without starting anything.
func New(cfg Config) (*Cluster, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid minicluster config: %w", err)
	}
	cfg = cfg.withDefaults()
	return &Cluster{
		cfg:     cfg,
		log:     cfg.Logger,
		host:    cfg.Host,
		webPort: -1,
		queue:   make(chan string, cfg.TotalSlots()*dispatchQueueFactor),
		closed:  make(chan struct{}),
	}, nil
}

// Start binds the coordinator listener, opens the job store, launches the
// task-manager workers, and waits for the endpoint(s) to answer readiness
// probes. The context bounds readiness polling only; the cluster itself
// lives until CloseAsync.
//
// On error, everything partially started is torn down before returning.
func (c *Cluster) Start(ctx context.Context) (retErr error) {
	if c.started {
		return errors.New("cluster already started")
	}

	startTime := time.Now()
	c.log.Debug("starting minicluster",
		"task_managers", c.cfg.TaskManagers,
		"slots_per_task_manager", c.cfg.SlotsPerTaskManager,
		"shared_dispatch", c.cfg.SharedDispatch,
	)

	defer func() {
		if retErr != nil {
			if err := c.teardown(); err != nil {
				c.log.Warn("cleanup partially-started cluster", "error", err)
			}
		}
	}()

	if err := fileutil.EnsureDir(c.cfg.ScratchDir); err != nil {
		return fmt.Errorf("prepare scratch dir: %w", err)
	}

	store, err := jobstore.Open(ctx, filepath.Join(c.cfg.ScratchDir, "db", "jobs.db"))
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	c.store = store

	// Bind the coordinator listener. With RPCPort 0 the kernel assigns a
	// free port, read back below so concurrently running clusters never
	// collide.
	l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.RPCPort))
	if err != nil {
		return fmt.Errorf("bind coordinator on %s:%d: %w", c.cfg.Host, c.cfg.RPCPort, err)
	}
	c.listener = l
	c.port = l.Addr().(*net.TCPAddr).Port

	handler := c.router()
	c.server = &http.Server{Handler: handler}
	go c.serve(c.server, c.listener, "coordinator")

	if c.cfg.WebEnabled {
		wl, err := net.Listen("tcp", fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.WebPort))
		if err != nil {
			return fmt.Errorf("bind web endpoint on %s:%d: %w", c.cfg.Host, c.cfg.WebPort, err)
		}
		c.webListener = wl
		c.webPort = wl.Addr().(*net.TCPAddr).Port
		c.webServer = &http.Server{Handler: handler}
		go c.serve(c.webServer, c.webListener, "web")
	}

	// Launch dispatch before readiness: /readyz answers 503 until ready is
	// set, so probes cannot succeed against a cluster that could not run jobs.
	runCtx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel
	c.startDispatch(runCtx)
	c.ready.Store(true)

	// Probe both endpoints concurrently; if one fails its poll the derived
	// context cancels the other immediately instead of waiting out the
	// timeout.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.waitEndpointReady(gCtx, "coordinator", c.port)
	})
	if c.cfg.WebEnabled {
		g.Go(func() error {
			return c.waitEndpointReady(gCtx, "web", c.webPort)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cluster readiness: %w", err)
	}

	c.started = true
	c.log.Debug("minicluster started", "port", c.port, "web_port", c.webPort, "elapsed", time.Since(startTime))
	return nil
}

// serve runs srv on l and logs any terminal error other than the expected
// close-time http.ErrServerClosed / use-of-closed-listener errors.
func (c *Cluster) serve(srv *http.Server, l net.Listener, name string) {
	err := srv.Serve(l)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		c.log.Warn("endpoint serve loop terminated", "endpoint", name, "error", err)
	}
}

// waitEndpointReady polls GET /readyz on the given port until it returns 200.
func (c *Cluster) waitEndpointReady(ctx context.Context, name string, port int) error {
	url := fmt.Sprintf("http://%s:%d/readyz", c.host, port)
	client := &http.Client{}
	return waitutil.WaitReady(ctx, waitutil.WaitReadyConfig{
		Interval: readyPollInterval,
		Timeout:  c.cfg.StartTimeout,
		Name:     name,
		Port:     port,
		Logger:   c.log,
		Closed:   c.closed,
	}, func(pollCtx context.Context, _ int) (bool, error) {
		req, err := http.NewRequestWithContext(pollCtx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, nil // not listening yet, keep polling
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK, nil
	})
}

// Address returns the host and bound coordinator port. Valid after a
// successful Start.
func (c *Cluster) Address() (host string, port int) {
	return c.host, c.port
}

// WebPort returns the bound web endpoint port, or -1 when the web endpoint
// is disabled.
func (c *Cluster) WebPort() int {
	return c.webPort
}

// TotalSlots returns the cluster-wide slot count.
func (c *Cluster) TotalSlots() int {
	return c.cfg.TotalSlots()
}

// CloseAsync begins shutdown and returns a channel that receives the terminal
// close error (nil on clean shutdown) and is then closed. Repeated calls
// return the same channel; teardown runs once.
func (c *Cluster) CloseAsync() <-chan error {
	c.closeOnce.Do(func() {
		c.closeCh = make(chan error, 1)
		go func() {
			c.closeCh <- c.teardown()
			close(c.closeCh)
		}()
	})
	return c.closeCh
}

// teardown releases everything the cluster holds. Each step runs regardless
// of earlier failures; errors are joined. Safe to call on a partially
// started cluster (fields are nil-checked) and safe to call twice because
// every step nils what it released.
func (c *Cluster) teardown() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	c.ready.Store(false)

	var errs []error

	if c.server != nil {
		if err := c.server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close coordinator server: %w", err))
		}
		c.server = nil
		c.listener = nil
	}
	if c.webServer != nil {
		if err := c.webServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close web server: %w", err))
		}
		c.webServer = nil
		c.webListener = nil
	}

	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.workers.Wait()

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
		c.store = nil
	}

	if c.cfg.Ports != nil {
		if c.cfg.RPCPort != 0 {
			c.cfg.Ports.Release(c.cfg.RPCPort)
		}
		if c.cfg.WebEnabled && c.cfg.WebPort != 0 {
			c.cfg.Ports.Release(c.cfg.WebPort)
		}
	}

	c.started = false
	return errors.Join(errs...)
}
