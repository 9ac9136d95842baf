// If you are AI: This file builds and runs the bot pipeline: source, optional decode/bot stage, and bus-or-container sink.

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nonchalant/internal/bot"
	"nonchalant/internal/busclient"
	"nonchalant/internal/config"
	"nonchalant/internal/decoder"
	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
	"nonchalant/internal/reactive"
	"nonchalant/internal/sink"
	"nonchalant/internal/svc/api"
	"nonchalant/internal/svc/health"
	"nonchalant/internal/transcode"
	"nonchalant/internal/videosource"
)

// Server wires together the video source, decode stage, optional bot
// instance, output sink, and introspection HTTP surface for one bot
// process.
type Server struct {
	httpServer *http.Server
	busClient  busclient.Client
	container  io.Closer

	pipelineDone chan error
	cancel       context.CancelFunc

	log *logrus.Entry
}

// botStatusAdapter adapts a *bot.Instance to api.BotStatusProvider
// without the api package importing internal/bot.
type botStatusAdapter struct{ inst *bot.Instance }

// BotStatus reports the wrapped instance's current state.
func (a botStatusAdapter) BotStatus() api.BotStatus {
	id := a.inst.CurrentFrameID()
	return api.BotStatus{
		Enabled:        true,
		BotID:          a.inst.BotID(),
		Configured:     a.inst.Configured(),
		CurrentFrameI1: id.I1,
		CurrentFrameI2: id.I2,
	}
}

// sourceStatusAdapter reports a fixed mode and a connected flag once
// the source publisher has been built successfully.
type sourceStatusAdapter struct{ mode string }

// SourceStatus reports the configured source mode.
func (a sourceStatusAdapter) SourceStatus() api.SourceStatus {
	return api.SourceStatus{Mode: a.mode, Connected: true}
}

// New builds a Server from cfg and starts the source-to-sink pipeline
// in the background. The HTTP introspection surface is started
// separately, by Run.
func New(cfg *config.Config, m *metrics.Registry) (*Server, error) {
	log := logging.For("server")

	busClient := busclient.NewResilientClient(busclient.NewNATSClient(cfg.Bus.URL), busclient.RequestCallbacks{
		OnError: func(err error) { log.WithError(err).Error("bus client fatal error") },
	}, m)

	rawSrc, err := buildSource(cfg, busClient, m)
	if err != nil {
		return nil, fmt.Errorf("build video source: %w", err)
	}
	src := reactive.SignalBreaker([]os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}, rawSrc)

	var instance *bot.Instance
	var botProvider api.BotStatusProvider
	if cfg.Bot.Enabled {
		instance = bot.NewInstance(bot.Config{BotID: os.Getenv("VIDEOBOT_ID"), Metrics: m})
		botProvider = botStatusAdapter{inst: instance}
	}

	var container io.Closer
	pipelineDone := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	switch cfg.Sink.Mode {
	case "bus":
		decoded := decoder.NewStage(bot.PixelFormat(cfg.Decoder.PixelFormat), m).Run(src)
		botOut := runBotOrPassthrough(instance, decoded)
		busSink := sink.NewBusMessageSink(busClient, map[bot.MessageKind]string{
			bot.Analysis: cfg.Sink.AnalysisChannel,
			bot.Debug:    cfg.Sink.DebugChannel,
			bot.Control:  cfg.Sink.ControlChannel,
		})
		go func() { pipelineDone <- busSink.Drain(ctx, botOut) }()
	case "container":
		f, err := os.Create(cfg.Sink.ContainerPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create container output %s: %w", cfg.Sink.ContainerPath, err)
		}
		container = f

		var encoded reactive.Publisher[bot.EncodedPacket]
		if cfg.Sink.Transcode {
			decoded := decoder.NewStage(bot.PixelFormat(cfg.Decoder.PixelFormat), m).Run(src)
			encoded = transcode.NewVP9Transcoder().Run(decoded)
		} else {
			encoded = src
		}
		containerSink := sink.NewContainerSink(f)
		go func() { pipelineDone <- containerSink.Drain(encoded) }()
	default:
		cancel()
		return nil, fmt.Errorf("unknown sink mode %q", cfg.Sink.Mode)
	}

	mux := http.NewServeMux()
	health.New(m.Gatherer()).RegisterRoutes(mux)
	api.NewService(botProvider, sourceStatusAdapter{mode: cfg.Source.Mode}).RegisterRoutes(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler: mux,
		},
		busClient:    busClient,
		container:    container,
		pipelineDone: pipelineDone,
		cancel:       cancel,
		log:          log,
	}, nil
}

// buildSource constructs the video source publisher for cfg.Source.Mode.
func buildSource(cfg *config.Config, client busclient.Client, m *metrics.Registry) (reactive.Publisher[bot.EncodedPacket], error) {
	switch cfg.Source.Mode {
	case "bus":
		ctx := context.Background()
		if err := client.Start(ctx); err != nil {
			return nil, fmt.Errorf("start bus client: %w", err)
		}
		return videosource.NewBusSource(client, cfg.Source.MetadataChannel, cfg.Source.FramesChannel, m).Open(ctx)
	case "url":
		return videosource.NewURLSource(cfg.Source.URL).Open()
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}

// runBotOrPassthrough batches decoded frames into singleton batches and
// runs them through the bot instance, or, when no instance is
// configured (recorder variant without a bot), re-emits frames
// unchanged as BotOutput.
func runBotOrPassthrough(instance *bot.Instance, decoded reactive.Publisher[bot.OwnedImageFrame]) reactive.Publisher[bot.BotOutput] {
	if instance == nil {
		return reactive.Map(decoded, func(f bot.OwnedImageFrame) bot.BotOutput { return f })
	}
	batches := reactive.Map(decoded, func(f bot.OwnedImageFrame) bot.BotInput {
		return bot.Batch{f}
	})
	return instance.RunBot(batches)
}

// Run starts the HTTP server and blocks until the pipeline finishes:
// normally, with a stream error, or when the signal breaker completes it
// on SIGINT/SIGTERM/SIGQUIT.
func (s *Server) Run() error {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("http server error")
		}
	}()
	return <-s.pipelineDone
}

// Shutdown stops the pipeline, the bus client, and the HTTP server with
// a fixed timeout.
func (s *Server) Shutdown() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var firstErr error
	if err := s.busClient.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.container != nil {
		if err := s.container.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
