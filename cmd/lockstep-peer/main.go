// Command lockstep-peer joins a lockstep-host room and feeds it synthetic
// movement input, mirroring the shape of a real client without needing an
// actual game to drive it.
package main

import (
	"flag"
	"fmt"
	"math"
	"net"
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

const tickRateHz = 20

func main() {
	hostAddr := flag.String("host", "127.0.0.1:7777", "host's UDP address")
	localPort := flag.Int("port", 0, "local UDP port (0 = any free port)")
	name := flag.String("name", "peer", "player display name")
	flag.Parse()

	log := logrus.NewEntry(logrus.StandardLogger())

	transport, err := netservice.NewUDPTransport(*localPort)
	if err != nil {
		log.WithError(err).Fatal("failed to open udp transport")
	}
	defer transport.Close()

	addr, err := net.ResolveUDPAddr("udp", *hostAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve host address")
	}
	host := transport.AddPeer(addr)

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

	ready := make(chan struct{})
	svc.OnGameStart(func(seed, tickIntervalMs, inputDelayTicks int32, playerIDs []int32) {
		localID := svc.LocalPlayerID()
		log.WithFields(logrus.Fields{"local_id": localID, "player_ids": playerIDs}).Info("game starting")
		eng.Initialize(uint32(seed), localID, len(playerIDs))
		for _, pid := range playerIDs {
			e := world.NewUnitEntity(fixedpoint.FromInt(5))
			e.Owner = pid
			sim.World.CreateEntity(e)
		}
		if err := eng.Start(); err != nil {
			log.WithError(err).Error("failed to start engine")
			return
		}
		close(ready)
	})

	if _, err := svc.JoinRoom(&netservice.Room{ID: "host-room", MaxPlayers: 8, Players: map[int32]*netservice.Player{}}, *name); err != nil {
		log.WithError(err).Fatal("failed to join room")
	}
	if err := svc.SetReady(true, 0, 0, 0); err != nil {
		log.WithError(err).Fatal("failed to signal ready")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / tickRateHz)
	defer ticker.Stop()

	dt := 1.0 / float64(tickRateHz)
	var frame int64
	for {
		select {
		case <-interrupt:
			log.Info("disconnecting")
			eng.Stop()
			return
		case <-ticker.C:
			if err := svc.Poll(); err != nil {
				log.WithError(err).Error("poll failed")
			}

			select {
			case <-ready:
				x := fixedpoint.FromFloat64(math.Sin(float64(frame) * 0.01))
				z := fixedpoint.FromFloat64(math.Cos(float64(frame) * 0.01))
				if err := eng.InputCommand(command.Command{
					Kind:    command.KindMove,
					Payload: &command.Move{X: x, Z: z},
				}); err != nil {
					log.WithError(err).Error("failed to submit input")
				}
				if err := eng.Update(dt); err != nil {
					log.WithError(err).Error("engine update failed")
				}
			default:
			}
			frame++

			if frame%int64(tickRateHz) == 0 {
				if err := svc.Ping(host); err != nil {
					log.WithError(err).Warn("ping failed")
				}
				fmt.Printf("tick=%d state=%s\n", eng.CurrentTick(), eng.State())
			}
		}
	}
}
