package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reallyoldfogie/demo-recorder-go/demo"
)

// parseStep parses reward:done:actions:observation, e.g. 1.5:true:0,1:0.1,0.2,0.3
// Actions and observation are comma separated floats and may be empty.
func parseStep(v string) (demo.StepRecord, error) {
	var step demo.StepRecord
	parts := strings.Split(v, ":")
	if len(parts) != 4 {
		return step, fmt.Errorf("invalid --step %q, want reward:done:actions:observation", v)
	}
	reward, err := strconv.ParseFloat(parts[0], 32)
	if err != nil {
		return step, fmt.Errorf("reward: %w", err)
	}
	done, err := strconv.ParseBool(parts[1])
	if err != nil {
		return step, fmt.Errorf("done: %w", err)
	}
	actions, err := parseFloats(parts[2])
	if err != nil {
		return step, fmt.Errorf("actions: %w", err)
	}
	obs, err := parseFloats(parts[3])
	if err != nil {
		return step, fmt.Errorf("observation: %w", err)
	}

	step.Info = demo.AgentInfo{Reward: float32(reward), Done: done}
	if len(obs) > 0 {
		step.Info.Observations = []demo.Observation{{
			Shape:     []int32{int32(len(obs))},
			FloatData: obs,
		}}
	}
	step.Action = demo.Action{VectorActions: actions}
	return step, nil
}

func parseFloats(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func newRootCmd() *cobra.Command {
	var (
		name       string
		configPath string
		paramsPath string
		brainName  string
		dir        string
		steps      []string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "demo-create",
		Short: "Write a demonstration file from step specs",
		Long: "Writes a .demo file. Each --step is reward:done:actions:observation,\n" +
			"e.g. --step 1.0:false:1:0.1,0.2 --step 0.5:true:0:0.3,0.4",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			cfg := demo.DefaultConfig()
			if configPath != "" {
				loaded, err := demo.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if dir != "" {
				cfg.Directory = dir
			}

			var params demo.Parameters
			if paramsPath != "" {
				p, err := demo.LoadParameters(paramsPath)
				if err != nil {
					return err
				}
				params = p
			}
			if brainName != "" {
				params.BrainName = brainName
			}

			records := make([]demo.StepRecord, 0, len(steps))
			for _, s := range steps {
				r, err := parseStep(s)
				if err != nil {
					return err
				}
				records = append(records, r)
			}

			store := demo.New(nil, cfg)
			if err := store.Initialize(name, params); err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			for _, r := range records {
				if err := store.Record(r); err != nil {
					_ = store.Close()
					return fmt.Errorf("record: %w", err)
				}
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("close: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d steps)\n", store.Path(), len(records))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "demo", "Demonstration name")
	f.StringVar(&configPath, "config", "", "YAML store configuration")
	f.StringVar(&paramsPath, "params", "", "YAML brain parameters")
	f.StringVar(&brainName, "brain", "", "Brain name (overrides --params)")
	f.StringVar(&dir, "dir", "", "Output directory (overrides --config)")
	f.StringArrayVar(&steps, "step", nil, "Step spec reward:done:actions:observation (repeatable)")
	f.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
