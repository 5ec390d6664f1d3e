package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pymontecarlo/gopenelopetools/config"
	"github.com/pymontecarlo/gopenelopetools/geometry"
	"github.com/pymontecarlo/gopenelopetools/material"
	"github.com/pymontecarlo/gopenelopetools/penepma"
	"github.com/pymontecarlo/gopenelopetools/results"
	"github.com/pymontecarlo/gopenelopetools/runner"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(conf)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configFile); err == nil && !force {
			return fmt.Errorf("%s exists, use --force to overwrite it", configFile)
		}
		if err := config.Default().Save(configFile); err != nil {
			return err
		}
		logger.Info("configuration written", zap.String("file", configFile))
		return nil
	},
}

// placeholders stands in for the materials of a geometry file, which only
// stores their indices.
func placeholders(i int) (*material.Material, error) {
	return &material.Material{Name: fmt.Sprintf("Material %d", i), Filename: fmt.Sprintf("mat%d.mat", i)}, nil
}

var (
	runFiles    []string
	runCollect  []string
	runOut      string
	runGeometry string
	runRaw      bool
	metricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run INPUT",
	Short: "Run penepma on an input file",
	Long: `run checks the input file against its geometry, runs penepma on it in a new
work directory with the geometry and material files, and copies the reports
to the output directory, zstd-compressed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		G, err := geometry.ReadFile(runGeometry, placeholders)
		if err != nil {
			return err
		}
		idx, err := G.Indexify()
		if err != nil {
			return err
		}
		in, err := penepma.ReadFile(args[0], idx)
		if err != nil {
			return err
		}
		if err := in.Check(); err != nil {
			return err
		}
		logger.Info("input", zap.String("file", args[0]), zap.Stringer("geometry", G))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		R, err := newRunner()
		if err != nil {
			return err
		}
		J := &runner.Job{
			Program: config.Penepma,
			Input:   func(w io.Writer) error { return in.Write(w, idx) },
			Files:   append([]string{runGeometry}, runFiles...),
		}
		return execute(ctx, cmd, R, J)
	},
}

var registry *prometheus.Registry

// newRunner returns a runner with metrics if they were asked for.
func newRunner() (*runner.Runner, error) {
	R := runner.New(conf, logger)
	if metricsFile == "" {
		return R, nil
	}
	registry = prometheus.NewRegistry()
	M, err := runner.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	R.Metrics = M
	return R, nil
}

// execute runs J and collects its reports whether it succeeds or not.
func execute(ctx context.Context, cmd *cobra.Command, R *runner.Runner, J *runner.Job) error {
	S, err := R.Run(ctx, J)
	if registry != nil {
		if merr := prometheus.WriteToTextfile(metricsFile, registry); merr != nil {
			logger.Warn("metrics not written", zap.String("file", metricsFile), zap.Error(merr))
		}
	}
	if S != nil {
		got, cerr := R.Collect(J, runCollect, runOut, !runRaw)
		for _, f := range got {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		if cerr != nil && err == nil {
			err = cerr
		}
		if cerr == nil {
			if rerr := R.Clean(J); rerr != nil {
				logger.Warn("work directory not removed", zap.String("workdir", J.WorkDir), zap.Error(rerr))
			}
		}
	}
	return err
}

var (
	matElements []string
	matDensity  float64
	matMEE      float64
	matRun      bool
)

var materialCmd = &cobra.Command{
	Use:   "material NAME",
	Short: "Write the input of the material program, or run it",
	Example: `  penelope material Brass -e 29=0.7 -e 30=0.3 -d 8.5
  penelope material Copper -e 29 -d 8.96 --run -o data`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp := make(map[int]float64, len(matElements))
		for _, e := range matElements {
			zs, fs, found := strings.Cut(e, "=")
			z, err := strconv.Atoi(zs)
			if err != nil {
				return fmt.Errorf("element %q: %w", e, err)
			}
			f := 1.0
			if found {
				if f, err = strconv.ParseFloat(fs, 64); err != nil {
					return fmt.Errorf("element %q: %w", e, err)
				}
			}
			comp[z] += f
		}
		M, err := material.New(args[0], comp, matDensity)
		if err != nil {
			return err
		}
		M.MeanExcitationEnergy = matMEE
		if !matRun {
			return M.WriteInput(cmd.OutOrStdout())
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if len(runCollect) == 0 {
			runCollect = []string{M.Filename}
		}
		R, err := newRunner()
		if err != nil {
			return err
		}
		J := &runner.Job{Program: config.Material, Input: M.WriteInput}
		return execute(ctx, cmd, R, J)
	},
}

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Inspect and convert geometry files",
}

var geometryInspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "List the surfaces and modules of a geometry file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		G, err := geometry.ReadFile(args[0], placeholders)
		if err != nil {
			return err
		}
		idx, err := G.Indexify()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, G)
		if G.Tilt != 0 || G.Rotation != 0 {
			fmt.Fprintf(out, "tilt %g deg, rotation %g deg\n", G.Tilt, G.Rotation)
		}
		for i, id := range idx.Surfaces {
			S := G.Surface(id)
			fmt.Fprintf(out, "surface %4d %s\n", i+1, S.Description)
		}
		for i, id := range idx.Modules {
			M := G.Module(id)
			mat, _ := idx.Material(M.Material)
			fmt.Fprintf(out, "module  %4d material %2d, %d surfaces, %d modules: %s\n",
				i+1, mat, len(M.Surfaces()), len(M.Modules()), M.Description)
		}
		return nil
	},
}

var geometryConvertCmd = &cobra.Command{
	Use:   "convert SRC DST",
	Short: "Rewrite a geometry file, compressing it or not as DST's name asks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		G, err := geometry.ReadFile(args[0], placeholders)
		if err != nil {
			return err
		}
		_, err = G.WriteFile(args[1])
		return err
	},
}

var (
	specLog   bool
	specTitle string
)

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Plot and integrate detector spectra",
}

var spectrumPlotCmd = &cobra.Command{
	Use:   "plot FILE OUT",
	Short: "Plot a spectrum to OUT, as png, svg or pdf",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		S, err := results.ReadSpectrumFile(args[0])
		if err != nil {
			return err
		}
		title := specTitle
		if title == "" {
			title = fmt.Sprintf("Detector %d", S.Detector)
		}
		return results.PlotSpectrum(S, title, args[1], specLog)
	},
}

var spectrumIntegrateCmd = &cobra.Command{
	Use:   "integrate FILE EMIN EMAX",
	Short: "Integrate a spectrum between two energies, in eV",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		S, err := results.ReadSpectrumFile(args[0])
		if err != nil {
			return err
		}
		var lim [2]float64
		for i := range lim {
			if lim[i], err = strconv.ParseFloat(args[i+1], 64); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.6E\n", S.Integrate(lim[0], lim[1]))
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary FILE [INTENSITIES]",
	Short: "Print the global results of a run, and its line intensities",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		S, err := results.ReadSummaryFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "time           %g s\n", S.SimulationTime)
		fmt.Fprintf(out, "showers        %g\n", S.Showers)
		fmt.Fprintf(out, "speed          %g showers/s\n", S.Speed)
		fmt.Fprintf(out, "backscattering %v\n", S.Backscattering)
		fmt.Fprintf(out, "absorption     %v\n", S.Absorption)
		fmt.Fprintf(out, "transmission   %v\n", S.Transmission)
		fmt.Fprintf(out, "seeds          %d %d\n", S.LastRandomSeeds[0], S.LastRandomSeeds[1])
		if len(args) < 2 {
			return nil
		}
		I, err := results.ReadIntensitiesFile(args[1])
		if err != nil {
			return err
		}
		for _, i := range I {
			fmt.Fprintf(out, "%-10s %10.2f eV  %v\n", i.Line(), i.Energy, i.Total)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd)

	for _, c := range []*cobra.Command{runCmd, materialCmd} {
		c.Flags().StringSliceVar(&runCollect, "collect", nil, "Patterns of the files to collect (default *.dat for run, the material file for material)")
		c.Flags().StringVarP(&runOut, "out", "o", ".", "Directory for the collected files")
		c.Flags().BoolVar(&runRaw, "raw", false, "Do not compress the collected files")
		c.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this file, in the Prometheus text format")
	}
	runCmd.Flags().StringVarP(&runGeometry, "geometry", "g", "", "Geometry file")
	runCmd.Flags().StringSliceVarP(&runFiles, "file", "f", nil, "Material files and any other file the run needs")
	runCmd.MarkFlagRequired("geometry")
	runCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if len(runCollect) == 0 {
			runCollect = []string{"*.dat"}
		}
	}

	materialCmd.Flags().StringArrayVarP(&matElements, "element", "e", nil, "Element as Z or Z=weight fraction")
	materialCmd.Flags().Float64VarP(&matDensity, "density", "d", 0, "Density (g/cm3)")
	materialCmd.Flags().Float64Var(&matMEE, "mee", 0, "Mean excitation energy (eV), 0 for the program's default")
	materialCmd.Flags().BoolVar(&matRun, "run", false, "Run the material program instead of printing its input")
	materialCmd.MarkFlagRequired("element")

	geometryCmd.AddCommand(geometryInspectCmd, geometryConvertCmd)

	spectrumPlotCmd.Flags().BoolVar(&specLog, "log", false, "Logarithmic intensity axis")
	spectrumPlotCmd.Flags().StringVar(&specTitle, "title", "", "Plot title")
	spectrumCmd.AddCommand(spectrumPlotCmd, spectrumIntegrateCmd)
}
