package main

import (
	"io"
	"log"
	"os"

	"github.com/ttacon/chalk"

	"github.com/vl4deee11/predprey/config"
	"github.com/vl4deee11/predprey/mob"
	"github.com/vl4deee11/predprey/sim"
)

// reporter logs the mean episode reward of each learning category every
// Show episodes.
type reporter struct {
	every int
	log   *log.Logger

	sums  map[mob.Category]float64
	count map[mob.Category]int
}

func newReporter(cfg config.Config) *reporter {
	return newReporterTo(os.Stderr, cfg.Show)
}

func newReporterTo(w io.Writer, every int) *reporter {
	return &reporter{
		every: every,
		log:   log.New(w, "", log.LstdFlags),
		sums:  make(map[mob.Category]float64),
		count: make(map[mob.Category]int),
	}
}

func (r *reporter) add(sum sim.Summary) {
	for _, m := range sum.Mobs {
		r.sums[m.Category] += m.Reward
		r.count[m.Category]++
	}
	if r.every <= 0 || sum.Episode%r.every != 0 {
		return
	}

	r.log.Print(chalk.Green)
	r.log.Printf("Episode %d/%d completed at %s, epsilon %.4f, %d frames",
		sum.Episode+1, sum.Episodes, sum.Finished.Format("15:04:05"), sum.Epsilon, sum.Frames)
	for _, c := range mob.Categories {
		if r.count[c] == 0 {
			continue
		}
		r.log.Printf("%s mean reward %.2f over %d mob episodes", c, r.mean(c), r.count[c])
	}
	r.log.Print(chalk.Reset)

	r.sums = make(map[mob.Category]float64)
	r.count = make(map[mob.Category]int)
}

func (r *reporter) mean(c mob.Category) float64 {
	if r.count[c] == 0 {
		return 0
	}
	return r.sums[c] / float64(r.count[c])
}
