// Command lockstep-host runs the authoritative side of a lockstep session:
// it owns the room as player 0 and drives the shared simulation forward
// tick by tick once every player has signaled ready. It does not hand out
// player IDs; each peer takes the ID its own JoinRoom call picks.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/engine"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/netservice"
	"github.com/xpTURN/Lockstep/simulation"
	"github.com/xpTURN/Lockstep/world"
)

const tickRateHz = 20 // matches engine.DefaultConfig's 50ms tick interval

func main() {
	port := flag.Int("port", 7777, "UDP port to listen on")
	playerCount := flag.Int("players", 2, "number of players the room waits for")
	seed := flag.Uint("seed", 1, "deterministic simulation seed")
	flag.Parse()

	log := logrus.NewEntry(logrus.StandardLogger())
	log.Logger.SetLevel(logrus.InfoLevel)

	transport, err := netservice.NewUDPTransport(*port)
	if err != nil {
		log.WithError(err).Fatal("failed to open udp transport")
	}
	defer transport.Close()

	cfg := engine.DefaultConfig()

	registry := command.NewRegistry()
	sim := simulation.New(simulation.Config{
		MaxSnapshots:   64,
		TickIntervalMs: int64(cfg.TickIntervalMs),
		Factories: map[world.TypeID]world.Factory{
			world.TypeIDUnit: func() world.Entity { return world.NewUnitEntity(fixedpoint.FromInt(5)) },
		},
		Log: log,
	})

	svc := netservice.NewService(transport, registry, nil, log)
	eng := engine.New(cfg, sim, registry, svc, log)
	svc.SetEngine(eng)

	room, err := svc.CreateRoom("host-room", *playerCount)
	if err != nil {
		log.WithError(err).Fatal("failed to create room")
	}
	log.WithField("room_id", room.ID).Info("room created, waiting for players")

	if err := svc.SetReady(true, int32(*seed), int32(cfg.TickIntervalMs), int32(cfg.InputDelayTicks)); err != nil {
		log.WithError(err).Fatal("failed to mark host ready")
	}

	svc.OnGameStart(func(s, tickIntervalMs, inputDelayTicks int32, playerIDs []int32) {
		log.WithField("player_ids", playerIDs).Info("game starting")
		eng.Initialize(uint32(s), 0, len(playerIDs))
		for _, pid := range playerIDs {
			e := world.NewUnitEntity(fixedpoint.FromInt(5))
			e.Owner = pid
			sim.World.CreateEntity(e)
		}
		if err := eng.Start(); err != nil {
			log.WithError(err).Error("failed to start engine")
		}
	})

	eng.OnTickExecuted(func(tick int32) {
		if tick%100 == 0 {
			log.WithFields(logrus.Fields{"tick": tick, "hash": sim.StateHash()}).Info("checkpoint")
		}
	})
	eng.OnDesyncDetected(func(local, remote uint64) {
		log.WithFields(logrus.Fields{"local": local, "remote": remote}).Error("desync detected")
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / tickRateHz)
	defer ticker.Stop()

	dt := 1.0 / float64(tickRateHz)
	for {
		select {
		case <-interrupt:
			log.Info("shutting down")
			eng.Stop()
			return
		case <-ticker.C:
			if err := svc.Poll(); err != nil {
				log.WithError(err).Error("poll failed")
			}
			if err := eng.Update(dt); err != nil {
				log.WithError(err).Error("engine update failed")
			}
		}
	}
}
