package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/runs"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "solve instances and print the search report",
		ArgsUsage: "[instance names...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "solve every instance in the config directory",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Value: 4,
				Usage: "maximum number of concurrent searches",
			},
			maxStatesFlag(),
			&cli.StringSliceFlag{
				Name:  "file",
				Usage: "solve an instance file outside the config directory (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			solver, err := initializeServices(cmd.String("config-dir"), runs.NewStore(), nil,
				service.WithMaxStates(uint64(cmd.Uint("max-states"))))
			if err != nil {
				return err
			}

			jobs, err := solveJobs(ctx, solver, cmd.Args().Slice(), cmd.StringSlice("file"), cmd.Bool("all"))
			if err != nil {
				return err
			}

			reports, err := solveAll(ctx, solver, jobs, int(cmd.Int("parallel")))
			if err != nil {
				return err
			}
			return printReports(cmd.Root().Writer, reports)
		},
	}
}

// solveJob is one instance to solve, by name or from a file
type solveJob struct {
	name string
	inst *model.Instance
}

// solveJobs resolves the command line into jobs; no names means the default instance
func solveJobs(ctx context.Context, solver service.SolverService, names, files []string, all bool) ([]solveJob, error) {
	var jobs []solveJob

	if all {
		infos, err := solver.ListInstances(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			jobs = append(jobs, solveJob{name: info.InstanceID})
		}
	}
	for _, name := range names {
		jobs = append(jobs, solveJob{name: name})
	}
	for _, path := range files {
		inst, err := config.DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if inst.Name == "" {
			inst.Name = path
		}
		jobs = append(jobs, solveJob{name: inst.Name, inst: inst})
	}

	if len(jobs) == 0 {
		jobs = append(jobs, solveJob{})
	}
	return jobs, nil
}

// solveAll runs the jobs concurrently and returns reports in job order
func solveAll(ctx context.Context, solver service.SolverService, jobs []solveJob, parallel int) ([]*service.RunReport, error) {
	if parallel < 1 {
		parallel = 1
	}

	reports := make([]*service.RunReport, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, job := range jobs {
		g.Go(func() error {
			var (
				rep *service.RunReport
				err error
			)
			if job.inst != nil {
				rep, err = solver.SolveInstance(gctx, job.inst)
			} else {
				rep, err = solver.Solve(gctx, job.name)
			}
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// printReports writes each report in the classic console layout
func printReports(w io.Writer, reports []*service.RunReport) error {
	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "=== %s ===\n", rep.InstanceName)
		fmt.Fprint(w, rep.Summary.Grid)
		fmt.Fprintln(w)
		if _, err := rep.Summary.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
