package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/cheggaaa/pb"
	"github.com/pkg/errors"

	"github.com/vl4deee11/predprey/config"
	"github.com/vl4deee11/predprey/mob"
	"github.com/vl4deee11/predprey/qtable"
	"github.com/vl4deee11/predprey/sim"
	"github.com/vl4deee11/predprey/store"
)

var (
	modeFlag   = flag.String("mode", "prey", "training/execution mode: prey, pred, evade or run")
	configFlag = flag.String("config", "", "YAML config file")

	episodesFlag = flag.Int("episodes", 0, "number of training episodes")
	framesFlag   = flag.Int("frames", 0, "steps per episode")
	showFlag     = flag.Int("show", 0, "publish every n-th episode")
	epsilonFlag  = flag.Float64("epsilon", 0, "random decision threshold")
	decayFlag    = flag.Float64("decay", 0, "epsilon decay rate per episode")
	seedFlag     = flag.Int64("seed", 0, "random seed, 0 for the clock")

	foodFlag = flag.Int("food", 0, "number of food mobs in run mode")
	preyFlag = flag.Int("prey", 0, "number of prey mobs in run mode")
	predFlag = flag.Int("pred", 0, "number of predator mobs in run mode")

	qPreyFlag = flag.String("q-prey", "", "stored prey table to start from")
	qPredFlag = flag.String("q-pred", "", "stored predator table to start from")
	saveFlag  = flag.Bool("save-q", false, "save the final tables")
	serveFlag = flag.Bool("serve", false, "stream shown episodes over websocket")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	mode, err := sim.ModeByName(*modeFlag, cfg.Counts)
	if err != nil {
		log.Fatalf("mode: %v", err)
	}

	var st *store.Store
	if cfg.Store.Save || cfg.Store.PreyTable != "" || cfg.Store.PredTable != "" {
		if st, err = store.Open(cfg.Store.AppName); err != nil {
			log.Fatalf("%v", err)
		}
	}

	s, err := sim.New(cfg, mode, sim.Options{Tables: loadTables(st, cfg.Store)})
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *serveFlag {
		r := sim.NewChanRenderer(256)
		s.Renderer = r
		h := newHub(s.World.Bounds.Max.X(), s.World.Bounds.Max.Y())
		go h.broadcast(r.C)

		ln, err := listenFrom(basePort(), 10)
		if err != nil {
			log.Fatalf("%v", err)
		}
		go func() {
			if err := h.serve(ln); err != nil {
				log.Fatalf("%v", err)
			}
		}()
	}

	log.Printf("%s mode: %d episodes of %d frames in a %vx%v world",
		mode.Name, cfg.Episodes, cfg.Frames, s.World.Bounds.Max.X(), s.World.Bounds.Max.Y())

	bar := pb.New(cfg.Episodes)
	bar.SetWidth(80)
	bar.Start()

	rep := newReporter(cfg)
	err = s.Run(ctx, func(sum sim.Summary) {
		bar.Increment()
		rep.add(sum)
	})
	bar.Finish()
	if err != nil && errors.Cause(err) != context.Canceled {
		log.Fatalf("%v", err)
	}

	if cfg.Store.Save {
		saveTables(st, s)
	} else {
		log.Println("Q table saving disabled")
	}

	if *serveFlag && err == nil {
		log.Println("training done, still serving; interrupt to quit")
		<-ctx.Done()
	}
}

// basePort is PORT from the environment, 8080 when unset or unreadable.
func basePort() int {
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		return p
	}
	return 8080
}

// loadConfig layers the config file and the flags given on the command line
// over the defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "episodes":
			cfg.Episodes = *episodesFlag
		case "frames":
			cfg.Frames = *framesFlag
		case "show":
			cfg.Show = *showFlag
		case "epsilon":
			cfg.Epsilon = *epsilonFlag
		case "decay":
			cfg.Decay = *decayFlag
		case "seed":
			cfg.Seed = *seedFlag
		case "food":
			cfg.Counts.Food = *foodFlag
		case "prey":
			cfg.Counts.Prey = *preyFlag
		case "pred":
			cfg.Counts.Predator = *predFlag
		case "q-prey":
			cfg.Store.PreyTable = *qPreyFlag
		case "q-pred":
			cfg.Store.PredTable = *qPredFlag
		case "save-q":
			cfg.Store.Save = *saveFlag
		}
	})
	return cfg, cfg.Validate()
}

// loadTables falls back to fresh tables for anything that cannot be loaded.
func loadTables(st *store.Store, sc config.Store) map[mob.Category]*qtable.Table {
	tables := make(map[mob.Category]*qtable.Table)
	if st == nil {
		return tables
	}
	for c, name := range map[mob.Category]string{mob.Prey: sc.PreyTable, mob.Predator: sc.PredTable} {
		if name == "" {
			continue
		}
		t, err := st.LoadTable(name)
		if err != nil {
			log.Printf("Warning: %v, starting %s from a fresh table", err, c)
			continue
		}
		log.Printf("loaded %s table %s", c, name)
		tables[c] = t
	}
	return tables
}

func saveTables(st *store.Store, s *sim.Sim) {
	for _, c := range s.Mode.Save {
		for _, m := range s.World.Members(c) {
			if m.Table == nil {
				continue
			}
			name := store.Name(c, m.ID)
			if err := st.SaveTable(name, m.Table); err != nil {
				log.Printf("Warning: %v", err)
				continue
			}
			log.Printf("saved %s table %s", c, name)
		}
	}
}
