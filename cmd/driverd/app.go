// Package driverd boots the driver-side trip runtime: booking feed, trip
// lifecycle, live location, route sync, and the supporting stores.
package driverd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"driverhub/internal/backend"
	"driverhub/internal/directory"
	"driverhub/internal/domain/booking"
	"driverhub/internal/domain/geo"
	"driverhub/internal/general/config"
	"driverhub/internal/general/jwt"
	"driverhub/internal/general/logger"
	"driverhub/internal/general/postgres"
	"driverhub/internal/general/rabbitmq"
	"driverhub/internal/geolocation"
	"driverhub/internal/location"
	"driverhub/internal/maps"
	"driverhub/internal/nearby"
	"driverhub/internal/render"
	"driverhub/internal/route"
	"driverhub/internal/search"
)

const (
	tokenTTL = 2 * time.Hour

	// simulated GPS drift per poll while no real device feed exists
	gpsStepDeg = 0.0002

	ghostCount     = 5
	ghostRadiusDeg = 0.005
)

func Run(ctx context.Context, configPath string, demo bool) error {
	// set up the runtime logger with a static request ID for startup logs
	log := logger.New("driver-runtime")
	ctx = log.WithRequestID(ctx, "startup-001")

	// load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load config", err, nil)
		return err
	}
	demo = demo || cfg.Runtime.Demo

	// trip history archive is optional; without a database the history lives
	// in memory for the session only
	var archive directory.HistoryArchive
	if cfg.Database.Host != "" {
		pool, err := postgres.NewPool(ctx, cfg, log)
		if err != nil {
			log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			return err
		}
		defer pool.Close()
		archive = postgres.NewHistoryRepo(pool)
	}

	// recent searches are optional the same way
	var recents search.RecentStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		recents = search.NewRedisRecentStore(rdb, cfg.Driver.ID)
	}

	// connect to RabbitMQ
	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// token manager and backend clients
	tokens := jwt.NewManager(cfg.Driver.SecretKey, tokenTTL)
	gateway := backend.NewGateway(log, cfg.Backend.BaseURL, tokens)
	locPub := backend.NewLocationPublisher(log, rmq)

	// booking directory: the single writer of trip state in this process
	dir := directory.New(log, cfg.Driver.ID, gateway, archive)
	defer dir.Close()
	dir.LoadHistory(ctx)

	// navigation providers; without an API key the runtime still works, it
	// just never shows routes or labels
	var (
		router   route.Router   = noopNav{}
		geocoder route.Geocoder = noopNav{}
		searcher search.Searcher
	)
	if cfg.Maps.APIKey != "" {
		mc, err := maps.NewClient(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			log.Error(ctx, "maps_client_failed", "Failed to create maps client", err, nil)
			return err
		}
		router, geocoder, searcher = mc, mc, mc
	} else {
		log.Info(ctx, "maps_disabled", "No maps API key configured; navigation data disabled", nil)
		searcher = noopNav{}
	}

	// position tracker over a simulated GPS provider
	seed := time.Now().UnixNano()
	provider := geolocation.NewSimulated(geo.DefaultCenter, gpsStepDeg, seed)
	tracker := location.NewTracker(log, provider, locPub, cfg.Driver.ID,
		cfg.LocationInterval(), dir.DisplayedStatus)
	defer tracker.Stop()

	// route engine
	engine := route.NewEngine(log, router, geocoder, cfg.Maps.Language, cfg.RouteDebounce())
	defer engine.Close()

	// debounced place search with optional recents
	searchSvc := search.NewService(log, searcher, recents, cfg.Maps.Language, cfg.SearchDebounce())
	defer searchSvc.Close()

	// picked-location labels share the search quiet period
	labeler := search.NewLabeler(log, geocoder, cfg.Maps.Language, cfg.SearchDebounce())
	defer labeler.Close()

	// ghost drivers shown while ride requests wait for a decision
	sim := nearby.NewSimulator(log, nearby.NewRandomSource(ghostCount, ghostRadiusDeg, seed),
		cfg.NearbyInterval(), seed)
	defer sim.Stop()

	// map surface; headless runs draw to the log
	surface := render.NewLogMap(log)
	wireMap(ctx, log, dir, tracker, engine, sim, surface)

	// backend feeds
	stream := backend.NewStream(log, cfg.Backend.WSURL, cfg.Driver.ID, tokens, dir)
	go stream.Run(ctx)

	feed := backend.NewFeed(log, rmq, dir, cfg.Driver.ID)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error(ctx, "feed_stopped", "Booking feed consumer stopped", err, nil)
		}
	}()

	tracker.SetOnline(true)
	tracker.Start()

	if demo {
		go runDemo(ctx, log, dir, tracker, labeler)
	}

	log.Info(ctx, "service_started", "Driver runtime started", map[string]any{
		"driver_id": cfg.Driver.ID,
		"demo":      demo,
	})

	<-ctx.Done()
	log.Info(context.WithoutCancel(ctx), "service_stopping", "Driver runtime shutting down", nil)
	return nil
}

// wireMap connects the runtime's observable state to the drawing surface and
// gates the ghost simulation on the pending-request list.
func wireMap(ctx context.Context, log *logger.Logger, dir *directory.Directory,
	tracker *location.Tracker, engine *route.Engine, sim *nearby.Simulator, surface render.Map,
) {
	tracker.Subscribe(func(pos geo.LatLng) {
		surface.SetMarker(render.LayerDriver, pos, render.IconCar)
		engine.SetDriverPosition(pos)
	})

	dir.SubscribeTrip(func(active *booking.Booking, displayed booking.Status) {
		engine.Observe(active, displayed)
		if active != nil {
			if active.Pickup != nil {
				surface.SetMarker(render.LayerPickup, *active.Pickup, render.IconPickup)
			}
			if active.Drop != nil {
				surface.SetMarker(render.LayerDrop, *active.Drop, render.IconDrop)
			}
		} else {
			surface.RemoveLayer(render.LayerPickup)
			surface.RemoveLayer(render.LayerDrop)
		}
		refreshGhosts(ctx, log, dir, tracker, sim)
	})

	dir.SubscribeBookings(func([]booking.Booking) {
		refreshGhosts(ctx, log, dir, tracker, sim)
	})

	engine.Subscribe(func(update route.Update) {
		if len(update.Path) > 0 {
			surface.DrawPath(render.LayerRoute, update.Path, "route")
		} else {
			surface.RemoveLayer(render.LayerRoute)
		}
	})

	drawn := make(map[render.LayerID]bool)
	sim.Subscribe(func(ghosts []nearby.Ghost) {
		seen := make(map[render.LayerID]bool, len(ghosts))
		for _, g := range ghosts {
			id := render.GhostLayer(g.ID)
			seen[id] = true
			drawn[id] = true
			surface.SetMarker(id, g.Position, render.IconGhost)
		}
		for id := range drawn {
			if !seen[id] {
				surface.RemoveLayer(id)
				delete(drawn, id)
			}
		}
	})
}

// refreshGhosts starts the ghost simulation while requests are pending and no
// trip is active, and stops it otherwise. Ghosts cluster around the first
// pending pickup, falling back to the driver position.
func refreshGhosts(ctx context.Context, log *logger.Logger, dir *directory.Directory,
	tracker *location.Tracker, sim *nearby.Simulator,
) {
	pending := dir.PendingRequests()
	if dir.ActiveTrip() != nil || len(pending) == 0 {
		sim.Stop()
		return
	}
	if sim.Running() {
		return
	}

	center := geo.DefaultCenter
	if pending[0].Pickup != nil {
		center = *pending[0].Pickup
	} else if pos := tracker.Current(); pos != nil {
		center = *pos
	}
	if err := sim.Start(ctx, center); err != nil {
		log.Error(ctx, "nearby_sim_failed", "Could not start nearby-driver simulation", err, nil)
	}
}

// noopNav disables navigation data when no maps provider is configured.
type noopNav struct{}

func (noopNav) FetchRoute(ctx context.Context, from, to geo.LatLng) ([]geo.LatLng, error) {
	return nil, nil
}

func (noopNav) ReverseGeocode(ctx context.Context, point geo.LatLng, language string) (string, error) {
	return "", nil
}

func (noopNav) SearchLocation(ctx context.Context, query, language string) ([]search.Place, error) {
	return nil, nil
}
