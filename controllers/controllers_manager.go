package controllers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmg8766/Firewall-Simulator/config"
	"github.com/jmg8766/Firewall-Simulator/rules"
	"github.com/jmg8766/Firewall-Simulator/transport/endpoint"
	"github.com/sirupsen/logrus"
)

// ControllersManager owns the rules engine, the two endpoints and the
// filter worker, and releases each of them exactly once on shutdown.
type ControllersManager struct {
	logger *logrus.Logger

	engine *rules.Engine
	mode   *ModeFlag

	in  *endpoint.Endpoint
	out *endpoint.Endpoint

	Filter *FilterController

	cancel   context.CancelFunc
	done     chan struct{}
	runErr   error
	started  bool
	stopOnce sync.Once
}

// NewControllersManager configures the rules engine and opens both
// endpoints. Configuration errors surface here, before any packet is
// ever processed.
func NewControllersManager(cfg *config.Config, logger *logrus.Logger) (*ControllersManager, error) {
	engine := rules.NewEngine(logger)
	if err := engine.Configure(cfg.Firewall.Rules); err != nil {
		return nil, err
	}

	initialMode, err := ParseMode(cfg.Firewall.Mode)
	if err != nil {
		return nil, err
	}
	mode := NewModeFlag(initialMode)

	if cfg.Pipeline.CreatePipes {
		if err := endpoint.Mkfifo(cfg.Pipeline.Input); err != nil {
			return nil, err
		}
		if err := endpoint.Mkfifo(cfg.Pipeline.Output); err != nil {
			return nil, err
		}
	}

	logger.WithField("input", cfg.Pipeline.Input).
		WithField("output", cfg.Pipeline.Output).
		WithField("mode", initialMode).
		Info("Opening endpoints")

	in, err := endpoint.OpenReader(cfg.Pipeline.Input)
	if err != nil {
		return nil, err
	}
	out, err := endpoint.OpenWriter(cfg.Pipeline.Output)
	if err != nil {
		in.Close()
		return nil, err
	}

	filter := NewFilterController(logger, engine, mode, in, out, cfg.Pipeline.MaxPacket)

	return &ControllersManager{
		logger: logger,
		engine: engine,
		mode:   mode,
		in:     in,
		out:    out,
		Filter: filter,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the filter worker. It returns immediately; use Done to
// observe worker termination.
func (c *ControllersManager) Start(ctx context.Context) error {
	if c.started {
		return fmt.Errorf("controllers manager already started")
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		defer close(c.done)
		if err := c.Filter.Start(ctx); err != nil {
			c.runErr = err
			c.logger.WithError(err).Error("Filter worker terminated")
		}
	}()
	return nil
}

// SetMode updates the enforcement mode. The next packet read from the
// input endpoint observes the new mode.
func (c *ControllersManager) SetMode(m Mode) {
	c.mode.Set(m)
	c.logger.WithField("mode", m).Info("Enforcement mode changed")
}

func (c *ControllersManager) Mode() Mode {
	return c.mode.Get()
}

// Done is closed once the filter worker has exited.
func (c *ControllersManager) Done() <-chan struct{} {
	return c.done
}

// Err reports why the filter worker exited, nil for a clean end of
// stream.
func (c *ControllersManager) Err() error {
	return c.runErr
}

// Stop shuts down the worker and releases the endpoints and the rules
// engine. Safe to call more than once.
func (c *ControllersManager) Stop() {
	c.stopOnce.Do(func() {
		c.Filter.Close()
		if c.cancel != nil {
			c.cancel()
		}

		// Closing the input endpoint unblocks a worker stuck in a read.
		if err := c.in.Close(); err != nil {
			c.logger.WithError(err).Error("Failed to close input endpoint")
		}
		if c.started {
			<-c.done
		}
		if err := c.out.Close(); err != nil {
			c.logger.WithError(err).Error("Failed to close output endpoint")
		}
		c.engine.Close()

		c.logger.WithField("received", c.Filter.received.Count()).
			WithField("forwarded", c.Filter.forwarded.Count()).
			WithField("dropped", c.Filter.dropped.Count()).
			Info("Goodbye")
	})
}

// Shutdown blocks until the worker finishes or a termination signal
// arrives, then stops everything.
func (c *ControllersManager) Shutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	signal.Notify(sigChan, syscall.SIGINT)

	select {
	case rawSig := <-sigChan:
		c.logger.WithField("signal", rawSig.String()).Info("Caught signal, shutting down")
	case <-c.done:
	}
	c.Stop()
}
