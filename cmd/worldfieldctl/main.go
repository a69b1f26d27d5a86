// Command worldfieldctl is the out-of-core operator CLI for the world
// field sampling engine: it loads a TOML fixture with the config package
// and issues a single point query against one of the six domains, printing
// the resolved sample. It mirrors the teacher's inmaputil/inmap-cmd command
// tree — a cobra root command, pflag-backed leaf flags, viper layering
// flags over environment variables — scaled down to the one operation this
// engine's core exposes: SampleQuery.
package main

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/worldfield/animal"
	"github.com/spatialmodel/worldfield/climate"
	"github.com/spatialmodel/worldfield/config"
	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/geology"
	"github.com/spatialmodel/worldfield/terrain"
	"github.com/spatialmodel/worldfield/vegetation"
	"github.com/spatialmodel/worldfield/weather"
	"github.com/spatialmodel/worldfield/worldfield"
)

const defaultCacheCapacity = 256

var log = logrus.StandardLogger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("worldfieldctl: run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "worldfieldctl",
		Short: "Query the world field sampling engine from the command line.",
		Long: `worldfieldctl loads a TOML fixture describing a domain's run-level
knobs and issues one point query against it, printing the resolved sample.
It is a thin operator tool layered over the sampling core; the core itself
takes no configuration format and does no I/O.`,
		DisableAutoGenTag: true,
	}

	root.AddCommand(newSampleCmd(v))
	return root
}

func newSampleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample one of the six domains at a point and tick.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			v.SetEnvPrefix("WORLDFIELD")
			v.AutomaticEnv()
			return runSample(v)
		},
		DisableAutoGenTag: true,
	}

	registerSampleFlags(cmd.Flags())
	cmd.MarkFlagRequired("config")
	return cmd
}

// registerSampleFlags centralizes the sample command's flag definitions
// against the raw *pflag.FlagSet, the same separation the teacher's
// inmaputil.Cfg keeps between flag registration and the cobra command tree
// that exposes them.
func registerSampleFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a TOML fixture file (required)")
	flags.String("domain", "terrain", "domain to sample: terrain|climate|weather|geology|vegetation|animal")
	flags.Float64("x", 0, "query point X")
	flags.Float64("y", 0, "query point Y")
	flags.Float64("z", 0, "query point Z")
	flags.Int64("tick", 0, "query tick")
	flags.Int64("budget", 1<<20, "query budget units")
}

func runSample(v *viper.Viper) error {
	fx, err := config.Load(v.GetString("config"))
	if err != nil {
		return err
	}

	p := worldfield.Point{
		X: fixedpoint.FromFloat(v.GetFloat64("x")),
		Y: fixedpoint.FromFloat(v.GetFloat64("y")),
		Z: fixedpoint.FromFloat(v.GetFloat64("z")),
	}
	tick := v.GetInt64("tick")
	budget := worldfield.NewBudget(v.GetInt64("budget"))

	fields, err := sampleDomain(fx, v.GetString("domain"), p, tick, budget)
	if err != nil {
		return err
	}
	logrus.WithFields(fields).Info("sample")
	return nil
}

func sampleDomain(fx *config.Fixture, domain string, p worldfield.Point, tick int64, budget *worldfield.Budget) (logrus.Fields, error) {
	switch domain {
	case "terrain":
		d := terrain.NewDomain(fx.TerrainDesc(), defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, budget)
		return logrus.Fields{
			"phi": s.Phi.Float(), "slope": s.Slope.Float(), "roughness": s.Roughness.Float(),
			"travel_cost": s.TravelCost.Float(), "walkable": s.Walkable,
			"material_primary": s.MaterialPrimary, "material_secondary": s.MaterialSecondary,
		}, nil
	case "climate":
		d := climate.NewDomain(fx.ClimateDesc(), defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, budget)
		return logrus.Fields{
			"temperature_mean": s.TemperatureMean.Float(), "precipitation_mean": s.PrecipitationMean.Float(),
			"seasonality_mean": s.SeasonalityMean.Float(), "wind_prevailing": s.WindPrevailing,
		}, nil
	case "weather":
		climDomain := climate.NewDomain(fx.ClimateDesc(), defaultCacheCapacity)
		climDomain.SetState(worldfield.Realized, worldfield.ArchivalNone)
		d := weather.NewDomain(fx.WeatherDesc(), climDomain, defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, tick, budget)
		return logrus.Fields{
			"temperature_mean": s.TemperatureMean.Float(), "precipitation_mean": s.PrecipitationMean.Float(),
			"surface_wetness": s.SurfaceWetness.Float(), "active_event_count": s.ActiveEventCount,
		}, nil
	case "geology":
		d := geology.NewDomain(fx.GeologyDesc(), defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, budget)
		return logrus.Fields{
			"depth": s.Depth.Float(), "layer_id": s.LayerID, "hardness": s.Hardness.Float(),
			"fracture_risk": s.FractureRisk.Float(), "has_fracture": s.HasFracture,
		}, nil
	case "vegetation":
		d := vegetation.NewDomain(fx.VegetationDesc(), defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, tick, budget)
		return logrus.Fields{
			"species_id": s.SpeciesID, "present": s.Present, "age_ticks": s.AgeTicks,
			"size": s.Size.Float(), "health": s.Health.Float(), "suitability": s.Suitability.Float(),
		}, nil
	case "animal":
		d := animal.NewDomain(fx.AnimalDesc(), defaultCacheCapacity)
		d.SetState(worldfield.Realized, worldfield.ArchivalNone)
		s := d.SampleQuery(p, tick, budget)
		return logrus.Fields{
			"species_id": s.SpeciesID, "present": s.Present, "age_ticks": s.AgeTicks,
			"energy": s.Energy.Float(), "health": s.Health.Float(), "need": s.Need.String(),
			"death_reason": s.DeathReason, "contested": s.Contested,
		}, nil
	default:
		return nil, fmt.Errorf("worldfieldctl: unknown domain %q", domain)
	}
}
