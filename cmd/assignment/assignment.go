package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/travigo/capacity-assignment/pkg/assignment"
	"github.com/travigo/capacity-assignment/pkg/capacities"
	"github.com/travigo/capacity-assignment/pkg/checkpoint"
	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/database"
	"github.com/travigo/capacity-assignment/pkg/demand"
	"github.com/travigo/capacity-assignment/pkg/redis_client"
	"github.com/travigo/capacity-assignment/pkg/statusapi"
)

func main() {
	if os.Getenv("ASSIGNMENT_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if os.Getenv("ASSIGNMENT_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "assignment",
		Description: "Capacity-constrained passenger assignment over a connection-scan timetable",
		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the assignment loop against a timetable and demand table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Required: true, Usage: "Path to the YAML settings file"},
			&cli.StringFlag{Name: "stops", Required: true},
			&cli.StringFlag{Name: "trips", Required: true},
			&cli.StringFlag{Name: "connections", Required: true},
			&cli.StringFlag{Name: "transfers"},
			&cli.StringFlag{Name: "demand", Required: true},
			&cli.StringFlag{Name: "capacities", Required: true},
			&cli.StringFlag{Name: "run-id", Value: "default", Usage: "Checkpoint/result identifier for this run"},
			&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "Directory CSV results are written to"},
			&cli.BoolFlag{Name: "distributed", Usage: "Dequeue destinations from the shared Redis queue instead of the in-process pool"},
			&cli.IntFlag{Name: "distributed-workers", Value: 4, Usage: "Number of local queue consumers started in --distributed mode"},
			&cli.BoolFlag{Name: "status-api", Usage: "Serve live diagnostics over HTTP while the run executes"},
			&cli.StringFlag{Name: "status-listen", Value: ":3434"},
			&cli.BoolFlag{Name: "save-to-mongo", Usage: "Persist the run summary and connection loads to MongoDB"},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	settings, err := assignment.LoadSettings(c.String("settings"))
	if err != nil {
		return err
	}

	data, reverseGraph, stopIndex, err := csa.LoadData(c.String("stops"), c.String("trips"), c.String("connections"), c.String("transfers"))
	if err != nil {
		return err
	}

	entries, err := demand.LoadEntries(c.String("demand"), stopIndex)
	if err != nil {
		return err
	}

	capacity, err := capacities.Load(c.String("capacities"), data.NumberOfConnections())
	if err != nil {
		return err
	}

	runID := c.String("run-id")

	var checkpointer assignment.Checkpointer
	if settings.CheckpointEnabled {
		if err := redis_client.Connect(); err != nil {
			return fmt.Errorf("assignment: connecting to redis: %w", err)
		}
		checkpointer = checkpoint.New(runID, time.Duration(settings.CheckpointTTL)*time.Second)
	}

	coordinator := assignment.NewCoordinator(data, reverseGraph, *settings, capacity, checkpointer)

	if c.Bool("status-api") {
		server, err := statusapi.New(coordinator)
		if err != nil {
			return fmt.Errorf("assignment: starting status API: %w", err)
		}
		go func() {
			if err := server.Listen(c.String("status-listen")); err != nil {
				log.Error().Err(err).Msg("status API server stopped")
			}
		}()
	}

	startTime := time.Now()
	if c.Bool("distributed") {
		if err := redis_client.Connect(); err != nil {
			return fmt.Errorf("assignment: connecting to redis: %w", err)
		}
		if err := coordinator.RunDistributed(entries, c.Int("distributed-workers")); err != nil {
			return err
		}
	} else if err := coordinator.Run(entries); err != nil {
		return err
	}

	log.Info().
		Bool("converged", coordinator.Converged()).
		Int("iterations", len(coordinator.Iterations())).
		Msg("assignment run complete")

	outDir := c.String("out-dir")
	loads := coordinator.PassengerCountsPerConnection()
	if err := assignment.WriteConnectionsWithLoad(outDir+"/connections-with-load.csv", data, loads); err != nil {
		return err
	}
	if err := assignment.WriteAssignment(outDir+"/groups.csv", coordinator.AssignmentData()); err != nil {
		return err
	}
	if err := assignment.WriteAssignedJourneys(outDir+"/journeys.csv", coordinator.AssignmentData(), entries); err != nil {
		return err
	}
	if err := assignment.WriteConnectionStatistics(outDir+"/statistics.csv", runID, coordinator.Iterations()); err != nil {
		return err
	}

	if c.Bool("save-to-mongo") {
		if err := database.Connect(); err != nil {
			return fmt.Errorf("assignment: connecting to mongodb: %w", err)
		}
		diagnostics := coordinator.CurrentDiagnostics()
		summary := database.RunSummary{
			RunID:         runID,
			StartedAt:     startTime,
			CompletedAt:   time.Now(),
			Iterations:    diagnostics.IterationsRun,
			Converged:     diagnostics.Converged,
			Unassigned:    diagnostics.Unassigned,
			DirectWalking: diagnostics.DirectWalking,
			RemovedCycles: diagnostics.RemovedCycles,
		}
		if err := database.SaveRunSummary(summary); err != nil {
			return fmt.Errorf("assignment: saving run summary: %w", err)
		}
		if err := database.SaveConnectionLoads(runID, loads, capacity); err != nil {
			return fmt.Errorf("assignment: saving connection loads: %w", err)
		}
	}

	return nil
}
